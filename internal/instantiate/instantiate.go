// Package instantiate turns a template into a concrete notebook: it loads
// the template's content model, injects the parameter cell and hands the
// serialized result to the storage sink.
package instantiate

import (
	"context"
	"fmt"
	"os"

	"github.com/sciapp/notebook-templates/pkg/domain"
	"github.com/sciapp/notebook-templates/pkg/nbformat"
)

// StorageSink persists an instantiated notebook at a destination. The sink
// gets exactly one attempt per instantiation; retrying is the user's job.
type StorageSink interface {
	Save(ctx context.Context, notebook []byte, dest domain.Destination) error
}

// StorageWriteError wraps a sink failure without interpreting its cause.
type StorageWriteError struct {
	Err error
}

func (e *StorageWriteError) Error() string { return fmt.Sprintf("save notebook: %v", e.Err) }
func (e *StorageWriteError) Unwrap() error { return e.Err }

type Instantiator struct {
	sink StorageSink
}

func New(sink StorageSink) *Instantiator {
	return &Instantiator{sink: sink}
}

// Instantiate loads the template at templateFile, injects params and saves
// the result at dest. templateFile must come from the catalog, which already
// vetted it against traversal; no re-validation happens here. The serialized
// notebook is returned for callers that want the bytes as well.
func (i *Instantiator) Instantiate(ctx context.Context, templateFile string, dest domain.Destination, params *domain.ParamSet) ([]byte, error) {
	data, err := os.ReadFile(templateFile)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	doc, err := nbformat.Parse(data)
	if err != nil {
		return nil, err
	}
	doc.InsertParams(params)
	notebook, err := doc.Serialize()
	if err != nil {
		return nil, fmt.Errorf("serialize notebook: %w", err)
	}
	if err := i.sink.Save(ctx, notebook, dest); err != nil {
		return nil, &StorageWriteError{Err: err}
	}
	return notebook, nil
}
