package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mcpstarter/mcp"
)

// Dispatcher looks up registered units, validates arguments against their
// declared shape and executes them. Handler faults are caught and reported,
// never propagated as process-fatal.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Invoke runs the unit registered under (category, identifier) with the
// given raw arguments. Validation happens before any side effect or
// suspension: an invalid argument set never reaches the handler. The
// returned error, when non-nil, is always a *Error.
func (dsp *Dispatcher) Invoke(ctx context.Context, category mcp.Category, identifier string, rawArgs map[string]interface{}) (interface{}, error) {
	d, err := dsp.registry.Lookup(category, identifier)
	if err != nil {
		return nil, err
	}

	args, err := validateArguments(d.Parameters, rawArgs)
	if err != nil {
		return nil, err
	}

	payload, err := dsp.execute(ctx, d, args)
	if err != nil {
		return nil, classifyExecutionError(ctx, err)
	}
	if ctx.Err() != nil {
		return nil, cancelledError()
	}
	return payload, nil
}

// execute runs the handler body, converting panics into errors so a faulty
// handler cannot take down the hosting process.
func (dsp *Dispatcher) execute(ctx context.Context, d *Descriptor, args map[string]interface{}) (payload interface{}, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = internalError(fmt.Sprintf("%s %q panicked: %v", d.Category, d.Identifier, rec))
		}
	}()
	return d.Handler(ctx, args)
}

func classifyExecutionError(ctx context.Context, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return cancelledError()
	}
	return internalError(err.Error())
}

// validateArguments checks raw arguments against an ordered parameter
// declaration. Required parameters must be present and type-coercible,
// unknown parameters are ignored and defaults fill in missing optional
// parameters. The input map is never mutated.
func validateArguments(params []mcp.ParameterSpec, rawArgs map[string]interface{}) (map[string]interface{}, error) {
	args := make(map[string]interface{}, len(params))

	for _, p := range params {
		raw, present := rawArgs[p.Name]
		if !present {
			if p.Required {
				return nil, invalidArgumentError(p.Name, string(p.Type), "missing required parameter")
			}
			if p.Default != nil {
				args[p.Name] = p.Default
			}
			continue
		}

		value, err := coerceValue(p, raw)
		if err != nil {
			return nil, invalidArgumentError(p.Name, string(p.Type), err.Error())
		}
		args[p.Name] = value
	}

	return args, nil
}

// coerceValue coerces a JSON-decoded value to the parameter's declared type.
// Numbers always normalize to float64.
func coerceValue(p mcp.ParameterSpec, raw interface{}) (interface{}, error) {
	switch p.Type {
	case mcp.TypeString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("got %T", raw)
		}
		if len(p.Enum) > 0 && !containsString(p.Enum, s) {
			return nil, fmt.Errorf("value %q is not one of %v", s, p.Enum)
		}
		return s, nil

	case mcp.TypeNumber:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return nil, fmt.Errorf("value %q is not a number", v.String())
			}
			return f, nil
		default:
			return nil, fmt.Errorf("got %T", raw)
		}

	case mcp.TypeBoolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("got %T", raw)
		}
		return b, nil

	case mcp.TypeObject:
		m, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("got %T", raw)
		}
		return m, nil

	default:
		return nil, fmt.Errorf("unknown parameter type %q", p.Type)
	}
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
