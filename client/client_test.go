package client

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpstarter/mcp"
)

type failingReader struct{ err error }

func (r *failingReader) Read(p []byte) (int, error) { return 0, r.err }

type failingWriter struct{ err error }

func (w *failingWriter) Write(p []byte) (int, error) { return 0, w.err }

func TestCall_SurfacesReadError(t *testing.T) {
	readFail := errors.New("wire torn")
	c := NewClient(&failingReader{err: readFail}, io.Discard)
	c.Start(context.Background())

	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, readFail)
}

func TestCall_ClosedPipe(t *testing.T) {
	c := NewClient(strings.NewReader(""), io.Discard)
	c.Start(context.Background())

	err := c.Ping(context.Background())
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

// A handler goroutine writing its answer can fail while the read loop is
// winding down; the first error must win and be visible afterwards.
func TestReadError_RecordedFromHandlerGoroutine(t *testing.T) {
	writeFail := errors.New("sink closed")
	input := `{"jsonrpc":"2.0","id":"srv-1","method":"elicitation/create","params":{"message":"sure?"}}` + "\n"

	c := NewClient(strings.NewReader(input), &failingWriter{err: writeFail},
		WithElicitationHandler(func(ctx context.Context, params mcp.ElicitParams) (*mcp.ElicitResult, error) {
			return &mcp.ElicitResult{Action: mcp.ElicitActionDecline}, nil
		}),
	)
	c.Start(context.Background())

	require.Eventually(t, func() bool {
		return errors.Is(c.getReadErr(), writeFail)
	}, time.Second, 5*time.Millisecond)
}

func TestSetReadErr_KeepsFirstError(t *testing.T) {
	c := NewClient(strings.NewReader(""), io.Discard)

	first := errors.New("first")
	c.setReadErr(nil)
	c.setReadErr(first)
	c.setReadErr(errors.New("second"))

	assert.ErrorIs(t, c.getReadErr(), first)
}
