// Package nbformat works with the Jupyter notebook JSON content model just
// enough to inject a parameter cell: it reads the kernel language, inserts
// one generated code cell behind the first cell and re-serializes the
// document. Everything else in the notebook passes through untouched.
package nbformat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sciapp/notebook-templates/pkg/domain"
)

// Extension is the file extension notebook templates are discovered by.
const Extension = ".ipynb"

// MediaType is the content type used when serving a notebook for download.
const MediaType = "application/vnd.jupyter"

type Document struct {
	raw map[string]any
}

// Parse decodes a notebook document. Numbers are kept as json.Number so the
// re-serialized document does not mangle integer literals.
func Parse(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse notebook: %w", err)
	}
	if _, ok := raw["cells"].([]any); !ok {
		return nil, fmt.Errorf("parse notebook: missing cells")
	}
	return &Document{raw: raw}, nil
}

// Language returns metadata.kernelspec.language lowercased, or "" when the
// notebook does not declare one.
func (d *Document) Language() string {
	metadata, _ := d.raw["metadata"].(map[string]any)
	kernelspec, _ := metadata["kernelspec"].(map[string]any)
	language, _ := kernelspec["language"].(string)
	return strings.ToLower(language)
}

func (d *Document) CellCount() int {
	cells, _ := d.raw["cells"].([]any)
	return len(cells)
}

// InsertParams inserts one generated code cell holding the given parameters
// behind the first cell. An empty parameter set leaves the document
// unchanged.
func (d *Document) InsertParams(params *domain.ParamSet) {
	if params == nil || params.Len() == 0 {
		return
	}
	cell := map[string]any{
		"cell_type":       "code",
		"execution_count": nil,
		"metadata":        map[string]any{},
		"outputs":         []any{},
		"source":          paramSource(d.Language(), params),
	}

	cells, _ := d.raw["cells"].([]any)
	at := 1
	if at > len(cells) {
		at = len(cells)
	}
	inserted := make([]any, 0, len(cells)+1)
	inserted = append(inserted, cells[:at]...)
	inserted = append(inserted, cell)
	inserted = append(inserted, cells[at:]...)
	d.raw["cells"] = inserted
}

// Serialize renders the document as indented UTF-8 JSON, matching the
// one-space indentation notebooks are conventionally stored with.
func (d *Document) Serialize() ([]byte, error) {
	return json.MarshalIndent(d.raw, "", " ")
}

// paramSource generates one source line per parameter in iteration order.
func paramSource(language string, params *domain.ParamSet) []any {
	source := make([]any, 0, params.Len())
	params.Each(func(name string, value any) {
		source = append(source, paramStatement(language, name, value))
	})
	return source
}

func paramStatement(language, name string, value any) string {
	if value == nil {
		switch language {
		case "python":
			return fmt.Sprintf("%s = None # not set\n", name)
		case "julia":
			return fmt.Sprintf("%s = nothing # not set\n", name)
		case "c":
			return fmt.Sprintf("int %s = 0; /* not set */\n", name)
		default:
			return fmt.Sprintf("%s = 0\n", name)
		}
	}
	if language == "c" {
		return cStatement(name, value)
	}
	return fmt.Sprintf("%s = %s\n", name, jsonLiteral(value))
}

// cStatement picks a typed C declaration based on the value's kind. Values
// that do not map onto a C scalar fall back to an untyped dump.
func cStatement(name string, value any) string {
	switch v := value.(type) {
	case string:
		return fmt.Sprintf("const char *%s = %s;\n", name, jsonLiteral(v))
	case json.Number:
		if isIntegerNumber(v) {
			return fmt.Sprintf("int %s = %s;\n", name, v.String())
		}
		return fmt.Sprintf("double %s = %s;\n", name, v.String())
	case bool:
		n := 0
		if v {
			n = 1
		}
		return fmt.Sprintf("int %s = %d;\n", name, n)
	default:
		return fmt.Sprintf("%s = %s;\n", name, jsonLiteral(v))
	}
}

func isIntegerNumber(n json.Number) bool {
	return !strings.ContainsAny(n.String(), ".eE")
}

func jsonLiteral(value any) string {
	b, err := json.Marshal(value)
	if err != nil {
		return "null"
	}
	return string(b)
}
