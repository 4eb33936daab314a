package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"mcpstarter/server"
	"mcpstarter/workshop"
)

const defaultPort = 3000

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio or HTTP",
		Long: `Starts the MCP server. By default it speaks newline-delimited JSON-RPC
over stdin/stdout, the transport MCP hosts spawn subprocesses with. With
--http it serves an SSE event stream instead.

Flags can also be set through the environment: MCP_STARTER_HTTP,
MCP_STARTER_PORT.`,
		RunE: runServe,
	}

	cmd.Flags().Bool("http", false, "serve over HTTP instead of stdio")
	cmd.Flags().Int("port", defaultPort, "port for the HTTP transport")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	v.SetEnvPrefix("MCP_STARTER")
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Protocol traffic owns stdout; everything we say goes to stderr.
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          serverName,
	})

	s := server.NewMCPServer(serverName, serverVersion,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithLogging(),
		server.WithInstructions("A workshop server. Start with the greet tool or read starter://welcome."),
		server.WithLogger(logger),
	)
	if err := workshop.RegisterAll(s); err != nil {
		return fmt.Errorf("register handlers: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if !v.GetBool("http") {
		logger.Info("serving over stdio")
		stdio := server.NewStdioServer(s)
		stdio.SetLogger(logger)
		if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && err != context.Canceled {
			return err
		}
		return nil
	}

	port := v.GetInt("port")
	addr := fmt.Sprintf(":%d", port)
	sse := server.NewSSEServer(s, fmt.Sprintf("http://localhost:%d", port))
	sse.SetLogger(logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving over HTTP", "addr", addr)
		if err := sse.Start(addr); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return sse.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
