// Package sink provides the built-in destination resolver and storage sink
// pairs: local filesystem storage, in-memory delivery for direct downloads,
// and Postgres-backed storage. Hosts with their own storage plug in their
// own pair instead.
package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sciapp/notebook-templates/pkg/domain"
)

// Filesystem stores instantiated notebooks below Dir, creating parent
// directories as needed.
type Filesystem struct {
	Dir string
}

func (f *Filesystem) Resolve(_ context.Context, relative string) (domain.Destination, error) {
	abs, err := filepath.Abs(filepath.Join(f.Dir, filepath.FromSlash(relative)))
	if err != nil {
		return nil, err
	}
	return &domain.PathDestination{Relative: relative, Absolute: abs}, nil
}

func (f *Filesystem) Save(_ context.Context, notebook []byte, dest domain.Destination) error {
	pd, ok := dest.(*domain.PathDestination)
	if !ok || pd.Absolute == "" {
		return fmt.Errorf("filesystem sink needs a path destination with an absolute path, got %T", dest)
	}
	if err := os.MkdirAll(filepath.Dir(pd.Absolute), 0o755); err != nil {
		return err
	}
	return os.WriteFile(pd.Absolute, notebook, 0o644)
}

// Inline keeps the notebook in the destination itself so the workflow can
// serve it back as a download. Nothing is persisted.
type Inline struct{}

func (Inline) Resolve(_ context.Context, relative string) (domain.Destination, error) {
	return &domain.InlineDestination{Relative: relative}, nil
}

func (Inline) Save(_ context.Context, notebook []byte, dest domain.Destination) error {
	id, ok := dest.(*domain.InlineDestination)
	if !ok {
		return fmt.Errorf("inline sink needs an inline destination, got %T", dest)
	}
	id.Data = notebook
	return nil
}

// Postgres upserts notebooks into the notebooks table keyed by relative
// path. Last write wins, matching the no-dedup contract of the pipeline.
type Postgres struct {
	DB *pgxpool.Pool
}

func (p *Postgres) Resolve(_ context.Context, relative string) (domain.Destination, error) {
	return &domain.PathDestination{Relative: relative}, nil
}

func (p *Postgres) Save(ctx context.Context, notebook []byte, dest domain.Destination) error {
	_, err := p.DB.Exec(ctx, `
INSERT INTO notebooks(relative_path, content)
VALUES($1, $2)
ON CONFLICT (relative_path) DO UPDATE SET content=$2, updated_at=now()
`, dest.RelativePath(), notebook)
	return err
}
