package domain

import (
	"encoding/json"
	"fmt"
)

// Destination describes where an instantiated notebook is persisted and how
// it is addressed afterwards. The pipeline never interprets a destination
// beyond its relative path and optional inline content; everything else is
// private to the storage sink that produced it.
//
// The interface is sealed: the two variants below are the only
// implementations, so a destination always survives a token round trip.
type Destination interface {
	// RelativePath is the destination path relative to the user's notebook
	// root, used for fallback filename derivation.
	RelativePath() string
	// InlineData returns the notebook content when the sink delivers it
	// in-memory instead of persisting it, nil otherwise.
	InlineData() []byte

	destination()
}

// PathDestination addresses a notebook by path. Absolute is optional and
// only meaningful to filesystem sinks.
type PathDestination struct {
	Relative string `json:"relative"`
	Absolute string `json:"absolute,omitempty"`
}

func (d *PathDestination) RelativePath() string { return d.Relative }
func (d *PathDestination) InlineData() []byte   { return nil }
func (d *PathDestination) destination()         {}

// InlineDestination carries the notebook content itself. Data is filled in
// by the inline sink at save time and is empty inside signed tokens.
type InlineDestination struct {
	Relative string `json:"relative"`
	Data     []byte `json:"data,omitempty"`
}

func (d *InlineDestination) RelativePath() string { return d.Relative }
func (d *InlineDestination) InlineData() []byte   { return d.Data }
func (d *InlineDestination) destination()         {}

// destinationEnvelope is the tagged wire form used inside signed tokens.
type destinationEnvelope struct {
	Kind   string             `json:"kind"`
	Path   *PathDestination   `json:"path,omitempty"`
	Inline *InlineDestination `json:"inline,omitempty"`
}

const (
	destinationKindPath   = "path"
	destinationKindInline = "inline"
)

// EncodeDestination wraps a destination in its tagged wire form.
func EncodeDestination(d Destination) (json.RawMessage, error) {
	var env destinationEnvelope
	switch v := d.(type) {
	case *PathDestination:
		env = destinationEnvelope{Kind: destinationKindPath, Path: v}
	case *InlineDestination:
		env = destinationEnvelope{Kind: destinationKindInline, Inline: v}
	default:
		return nil, fmt.Errorf("unknown destination type %T", d)
	}
	return json.Marshal(env)
}

// DecodeDestination is the inverse of EncodeDestination.
func DecodeDestination(data []byte) (Destination, error) {
	var env destinationEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case destinationKindPath:
		if env.Path == nil {
			return nil, fmt.Errorf("path destination without body")
		}
		return env.Path, nil
	case destinationKindInline:
		if env.Inline == nil {
			return nil, fmt.Errorf("inline destination without body")
		}
		return env.Inline, nil
	default:
		return nil, fmt.Errorf("unknown destination kind %q", env.Kind)
	}
}
