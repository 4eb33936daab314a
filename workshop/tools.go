package workshop

import (
	"context"
	"fmt"
	"math"
	"time"

	"mcpstarter/mcp"
	"mcpstarter/server"
)

var weatherConditions = []string{
	"sunny",
	"cloudy",
	"rainy",
	"stormy",
	"snowy",
	"foggy",
}

const (
	minTaskSteps = 1
	maxTaskSteps = 100
)

func (w *Workshop) registerTools(s *server.MCPServer) error {
	if err := s.AddTool(mcp.NewTool("greet",
		mcp.WithDescription("Greets a person by name."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name of the person to greet."),
		),
		mcp.WithAnnotations(mcp.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true}),
	), w.handleGreet); err != nil {
		return err
	}

	if err := s.AddTool(mcp.NewTool("get_weather",
		mcp.WithDescription("Reports made-up weather for a city."),
		mcp.WithString("city",
			mcp.Required(),
			mcp.Description("City to report weather for."),
		),
		mcp.WithAnnotations(mcp.ToolAnnotations{ReadOnlyHint: true}),
	), w.handleGetWeather); err != nil {
		return err
	}

	if err := s.AddTool(mcp.NewTool("calculate",
		mcp.WithDescription("Performs basic arithmetic on two numbers."),
		mcp.WithNumber("a",
			mcp.Required(),
			mcp.Description("First operand."),
		),
		mcp.WithNumber("b",
			mcp.Required(),
			mcp.Description("Second operand."),
		),
		mcp.WithString("operation",
			mcp.Required(),
			mcp.Description("Arithmetic operation to perform."),
			mcp.Enum("add", "subtract", "multiply", "divide"),
		),
		mcp.WithAnnotations(mcp.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true}),
	), w.handleCalculate); err != nil {
		return err
	}

	return s.AddTool(mcp.NewTool("long_task",
		mcp.WithDescription("Simulates a long-running task with a bounded number of timed steps."),
		mcp.WithNumber("steps",
			mcp.Required(),
			mcp.Description("Number of steps to run, between 1 and 100."),
		),
		mcp.WithString("task",
			mcp.Description("Display name of the task."),
			mcp.DefaultString("long task"),
		),
	), w.handleLongTask)
}

func (w *Workshop) handleGreet(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	name := args["name"].(string)
	return fmt.Sprintf("Hello, %s!", name), nil
}

func (w *Workshop) handleGetWeather(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	city := args["city"].(string)
	condition := weatherConditions[w.intn(len(weatherConditions))]
	temperature := w.intn(45) - 10
	return fmt.Sprintf("The weather in %s is %s with a temperature of %d°C.", city, condition, temperature), nil
}

// handleCalculate performs the requested arithmetic. Division by zero yields
// NaN rather than a fault.
func (w *Workshop) handleCalculate(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	a := args["a"].(float64)
	b := args["b"].(float64)
	operation := args["operation"].(string)

	var result float64
	switch operation {
	case "add":
		result = a + b
	case "subtract":
		result = a - b
	case "multiply":
		result = a * b
	case "divide":
		if b == 0 {
			result = math.NaN()
		} else {
			result = a / b
		}
	}

	return fmt.Sprintf("%g %s %g = %g", a, operation, b, result), nil
}

// handleLongTask runs the requested number of timed steps, honoring
// cancellation during every delay. Out-of-range step counts are rejected
// before the first delay begins.
func (w *Workshop) handleLongTask(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	stepsArg := args["steps"].(float64)
	task := args["task"].(string)

	steps := int(stepsArg)
	if float64(steps) != stepsArg || steps < minTaskSteps || steps > maxTaskSteps {
		return nil, server.NewInvalidArgumentError("steps",
			fmt.Sprintf("integer between %d and %d", minTaskSteps, maxTaskSteps),
			fmt.Sprintf("got %g", stepsArg))
	}

	timer := time.NewTimer(w.stepDelay)
	defer timer.Stop()

	for step := 1; step <= steps; step++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
		if step < steps {
			timer.Reset(w.stepDelay)
		}
	}

	return fmt.Sprintf("Task %q completed after %d steps.", task, steps), nil
}
