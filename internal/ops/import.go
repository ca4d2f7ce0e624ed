package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/hpungsan/roost/internal/archive"
	"github.com/hpungsan/roost/internal/db"
	"github.com/hpungsan/roost/internal/errors"
)

// maxImportLine bounds one JSONL line; documents carry full post text and entities.
const maxImportLine = 4 << 20

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError ImportMode = "error" // fail on the first duplicate, import nothing
	ImportModeSkip  ImportMode = "skip"  // skip posts whose id is already archived
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError represents a line that was not imported.
type ImportError struct {
	Line    int    `json:"line,omitempty"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type importRecord struct {
	line int
	doc  archive.ArchivedPost
}

// Import reads a JSONL export file and inserts its posts. Store ids are
// regenerated; the domain id decides what counts as a duplicate.
func Import(ctx context.Context, d Deps, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeSkip {
		return nil, errors.NewInvalidRequest("mode must be one of: error, skip")
	}

	if err := ValidatePath(input.Path, PathCheckRead, filepath.Join(d.Home, ExportsDir), d.config()); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if errors.Is(err, errors.ErrFileNotFound) || errors.Is(err, errors.ErrInvalidRequest) {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, parseErrors := parseExportFile(file)

	// For mode:error, fail on any parse errors
	if input.Mode == ImportModeError && len(parseErrors) > 0 {
		return &ImportOutput{Errors: parseErrors}, nil
	}

	existing, err := d.Store.Find(ctx, db.Filter{})
	if err != nil {
		return nil, err
	}
	archived := make(map[string]bool, len(existing))
	for _, doc := range existing {
		archived[doc.ID] = true
	}

	out := &ImportOutput{Errors: []ImportError{}}
	out.Errors = append(out.Errors, parseErrors...)
	out.Skipped = len(parseErrors)

	var pending []importRecord
	for _, rec := range records {
		if archived[rec.doc.ID] {
			dup := ImportError{
				Line:    rec.line,
				ID:      rec.doc.ID,
				Code:    string(errors.ErrDuplicateReference),
				Message: fmt.Sprintf("post %s is already archived", rec.doc.ID),
			}
			if input.Mode == ImportModeError {
				// Nothing has been inserted yet.
				return &ImportOutput{Errors: []ImportError{dup}}, nil
			}
			out.Errors = append(out.Errors, dup)
			out.Skipped++
			continue
		}
		archived[rec.doc.ID] = true
		pending = append(pending, rec)
	}

	for _, rec := range pending {
		if _, err := d.Store.Insert(ctx, rec.doc); err != nil {
			return nil, err
		}
		out.Imported++
	}

	d.log().Info("archive imported", "path", input.Path, "imported", out.Imported, "skipped", out.Skipped)
	return out, nil
}

// parseExportFile parses a JSONL export file into records.
func parseExportFile(r io.Reader) ([]importRecord, []ImportError) {
	var records []importRecord
	var parseErrors []ImportError

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record archive.ExportRecord
		if err := json.Unmarshal(line, &record); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}

		// Skip header line
		if record.RoostExport {
			continue
		}

		doc := record.ToArchivedPost()
		if doc.ID == "" {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "INVALID_RECORD",
				Message: "missing id field",
			})
			continue
		}

		records = append(records, importRecord{line: lineNum, doc: doc})
	}

	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return records, parseErrors
}
