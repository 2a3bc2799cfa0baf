package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MissingParameterError names the first placeholder in a destination pattern
// that had no value in the parameter set.
type MissingParameterError struct {
	Name string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing parameter %q", e.Name)
}

// ResolvePath substitutes {name} placeholders in pattern with values from
// params. "{{" and "}}" escape literal braces. The first placeholder without
// a value fails the whole resolution; no partially substituted path is ever
// returned.
func ResolvePath(pattern string, params *ParamSet) (string, error) {
	var b strings.Builder
	for i := 0; i < len(pattern); {
		ch := pattern[i]
		switch {
		case ch == '{' && i+1 < len(pattern) && pattern[i+1] == '{':
			b.WriteByte('{')
			i += 2
		case ch == '}' && i+1 < len(pattern) && pattern[i+1] == '}':
			b.WriteByte('}')
			i += 2
		case ch == '{':
			end := strings.IndexByte(pattern[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("unclosed placeholder in %q", pattern)
			}
			name := pattern[i+1 : i+end]
			value, ok := params.Get(name)
			if !ok {
				return "", &MissingParameterError{Name: name}
			}
			b.WriteString(formatPathValue(value))
			i += end + 1
		default:
			b.WriteByte(ch)
			i++
		}
	}
	return b.String(), nil
}

// formatPathValue renders a parameter value for use inside a path. Strings
// are used verbatim; everything else uses its canonical JSON rendering.
func formatPathValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return "null"
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
