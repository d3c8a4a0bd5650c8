package surfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidArguments is returned when a tool call's arguments cannot be used.
var ErrInvalidArguments = errors.New("invalid tool arguments")

// Argument is one tool call argument rendered as text, in the order the model wrote it.
type Argument struct {
	Key   string
	Value string
}

// arguments holds a decoded tool call.
type arguments struct {
	ordered []Argument
	values  map[string]string
	raw     map[string]interface{}
}

// parseArguments decodes the JSON object a model produced for a tool call,
// keeping key order for display. Numbers keep their literal text.
func parseArguments(data string) (*arguments, error) {
	args := &arguments{
		values: make(map[string]string),
		raw:    make(map[string]interface{}),
	}
	if strings.TrimSpace(data) == "" {
		return args, nil
	}

	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidArguments)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected an object key", ErrInvalidArguments)
		}
		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
		}
		text := argumentText(value)
		if _, seen := args.values[key]; !seen {
			args.ordered = append(args.ordered, Argument{Key: key, Value: text})
		}
		args.values[key] = text
		args.raw[key] = value
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return args, nil
}

func argumentText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// require returns the named argument or an ErrInvalidArguments error.
func (a *arguments) require(key string) (string, error) {
	v, ok := a.values[key]
	if !ok {
		return "", fmt.Errorf("%w: missing required argument '%s'", ErrInvalidArguments, key)
	}
	return v, nil
}
