// Package domain holds the value types shared across the instantiation
// pipeline: parameter sets and notebook destinations. Both must survive a
// round trip through a signed token payload unchanged.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ParamSet is an ordered mapping from parameter name to a JSON-compatible
// value. Iteration order is insertion order; overwriting an existing name
// keeps its original position. Numbers are kept as json.Number so integer
// and floating literals stay distinguishable for code generation.
type ParamSet struct {
	order  []string
	values map[string]any
}

func NewParamSet() *ParamSet {
	return &ParamSet{values: map[string]any{}}
}

func (p *ParamSet) Set(name string, value any) {
	if _, ok := p.values[name]; !ok {
		p.order = append(p.order, name)
	}
	p.values[name] = value
}

func (p *ParamSet) Get(name string) (any, bool) {
	v, ok := p.values[name]
	return v, ok
}

func (p *ParamSet) Len() int { return len(p.order) }

// Names returns the parameter names in iteration order.
func (p *ParamSet) Names() []string {
	return append([]string(nil), p.order...)
}

// Each calls fn once per parameter in iteration order.
func (p *ParamSet) Each(fn func(name string, value any)) {
	for _, name := range p.order {
		fn(name, p.values[name])
	}
}

// MarshalJSON emits the parameters as a JSON object in iteration order, so
// the order survives token encoding.
func (p *ParamSet) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, name := range p.order {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		v, err := json.Marshal(p.values[name])
		if err != nil {
			return nil, err
		}
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func (p *ParamSet) UnmarshalJSON(data []byte) error {
	parsed, err := parseObjectOrdered(data)
	if err != nil {
		return err
	}
	*p = *parsed
	return nil
}

// MergeParams builds a ParamSet from raw JSON object sources applied in
// order, later keys overwriting earlier ones. A source that is empty or not
// a well-formed JSON object contributes nothing; this leniency mirrors the
// external contract, where malformed optional inputs are ignored rather
// than rejected.
func MergeParams(sources ...string) *ParamSet {
	merged := NewParamSet()
	for _, src := range sources {
		if strings.TrimSpace(src) == "" {
			continue
		}
		parsed, err := parseObjectOrdered([]byte(src))
		if err != nil {
			continue
		}
		parsed.Each(func(name string, value any) {
			merged.Set(name, value)
		})
	}
	return merged
}

// parseObjectOrdered decodes a JSON object while preserving key order, which
// encoding/json's map decoding would lose.
func parseObjectOrdered(data []byte) (*ParamSet, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("not a JSON object")
	}

	out := NewParamSet()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("non-string object key")
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		out.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after object")
	}
	return out, nil
}
