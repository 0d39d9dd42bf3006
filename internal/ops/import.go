package ops

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/dogfacts/dogfacts/internal/config"
	"github.com/dogfacts/dogfacts/internal/errors"
	"github.com/dogfacts/dogfacts/internal/fact"
	"github.com/dogfacts/dogfacts/internal/fsutil"
	"github.com/dogfacts/dogfacts/internal/store"
)

// ImportMode controls duplicate handling during import.
type ImportMode string

const (
	ImportModeError ImportMode = "error" // fail on duplicate (nothing imported)
	ImportModeSkip  ImportMode = "skip"  // skip duplicates, import the rest
)

// maxImportLine bounds a single JSONL line.
const maxImportLine = 1 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path  string     // required
	Mode  ImportMode // default: error
	Token string     // must match the configured write token
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Import appends facts from a JSONL export file to the collection.
//
// The whole file is parsed and validated before the store is touched, then
// every record is applied in a single Update. In error mode the first
// duplicate (against the collection or earlier in the file) aborts the
// import and nothing is written.
func Import(ctx context.Context, st store.Store, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if err := authorize(cfg, input.Token); err != nil {
		return nil, err
	}

	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeSkip {
		return nil, errors.NewInvalidRequest("mode must be one of: error, skip")
	}

	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := fsutil.OpenNoFollowRead(input.Path)
	if err != nil {
		switch {
		case stderrors.Is(err, fsutil.ErrSymlink):
			return nil, errors.NewInvalidRequest("cannot read from symlink")
		case stderrors.Is(err, os.ErrNotExist):
			return nil, errors.NewFileNotFound(input.Path)
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, err := parseExportFile(ctx, file)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if err := validateDescription(cfg, r.Description); err != nil {
			fErr := errors.As(err)
			return nil, errors.NewInvalidRequest(fmt.Sprintf("line %d: %s", r.line, fErr.Message))
		}
	}

	if len(records) == 0 {
		return &ImportOutput{}, nil
	}

	var out ImportOutput
	err = st.Update(ctx, func(current []fact.Fact) ([]fact.Fact, error) {
		// fn may be retried by optimistic backends
		out = ImportOutput{}
		seen := make(map[string]bool, len(current)+len(records))
		for _, f := range current {
			seen[f.Key()] = true
		}

		for _, r := range records {
			key := fact.Key(r.Description)
			if seen[key] {
				if input.Mode == ImportModeError {
					return nil, errors.NewDuplicateFact(r.Description)
				}
				out.Skipped++
				continue
			}
			seen[key] = true
			current = append(current, r.ToFact())
			out.Imported++
		}
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// importRecord is a parsed fact line with its 1-based line number.
type importRecord struct {
	fact.ExportRecord
	line int
}

// parseExportFile reads a JSONL export. The first non-blank line must be a
// header with a supported schema version. Any malformed line fails the parse.
func parseExportFile(ctx context.Context, r io.Reader) ([]importRecord, error) {
	var records []importRecord

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)

	lineNum := 0
	sawHeader := false
	for scanner.Scan() {
		lineNum++
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("import")
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var record fact.ExportRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("line %d: invalid JSON: %v", lineNum, err))
		}

		if !sawHeader {
			if !record.DogfactsExport {
				return nil, errors.NewInvalidRequest("missing export header")
			}
			if record.SchemaVersion != fact.ExportSchemaVersion {
				return nil, errors.NewInvalidRequest(
					fmt.Sprintf("unsupported schema_version %q (want %q)", record.SchemaVersion, fact.ExportSchemaVersion))
			}
			sawHeader = true
			continue
		}
		if record.DogfactsExport {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("line %d: unexpected second header", lineNum))
		}

		records = append(records, importRecord{ExportRecord: record, line: lineNum})
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("failed to read file after line %d: %v", lineNum, err))
	}
	if !sawHeader {
		return nil, errors.NewInvalidRequest("missing export header")
	}

	return records, nil
}
