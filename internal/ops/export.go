package ops

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dogfacts/dogfacts/internal/config"
	"github.com/dogfacts/dogfacts/internal/errors"
	"github.com/dogfacts/dogfacts/internal/fact"
	"github.com/dogfacts/dogfacts/internal/fsutil"
	"github.com/dogfacts/dogfacts/internal/store"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path string // optional, default: <base>/exports/facts-<timestamp>.jsonl
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// Export writes the collection to a JSONL file: a header line, then one
// fact per line in collection order. An existing file at the path is only
// replaced once the new one is complete.
func Export(ctx context.Context, st store.Store, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	now := time.Now()

	exportPath := input.Path
	if exportPath == "" {
		exportPath = defaultExportPath(cfg, now)
	}

	// Default paths are validated too
	if err := ValidatePath(exportPath, PathCheckWrite, cfg); err != nil {
		return nil, err
	}

	facts, err := st.Load(ctx)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	header := fact.ExportHeader{
		DogfactsExport: true,
		SchemaVersion:  fact.ExportSchemaVersion,
		ExportedAt:     now.Unix(),
		Count:          len(facts),
	}

	err = fsutil.WriteAtomic(exportPath, 0600, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(header); err != nil {
			return err
		}
		for _, f := range facts {
			if ctx.Err() != nil {
				return errors.NewCancelled("export")
			}
			if err := enc.Encode(fact.ToExportRecord(f)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var fErr *errors.FactsError
		if stderrors.As(err, &fErr) {
			return nil, fErr
		}
		if stderrors.Is(err, fsutil.ErrSymlink) {
			return nil, errors.NewInvalidRequest("cannot write to symlink")
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to write export: %w", err))
	}

	return &ExportOutput{
		Path:       exportPath,
		Count:      len(facts),
		ExportedAt: header.ExportedAt,
	}, nil
}

// defaultExportPath generates <base>/exports/facts-<timestamp>.jsonl.
func defaultExportPath(cfg *config.Config, now time.Time) string {
	filename := fmt.Sprintf("facts-%s.jsonl", now.Format("2006-01-02T150405"))
	return filepath.Join(cfg.ExportsDir(), filename)
}
