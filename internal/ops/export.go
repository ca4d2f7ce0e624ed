package ops

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hpungsan/roost/internal/archive"
	"github.com/hpungsan/roost/internal/db"
	"github.com/hpungsan/roost/internal/errors"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path string // optional, default: <home>/exports/roost-<timestamp>.jsonl
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// Export writes every archived post to a JSONL file: one header line, then
// one document per line in insertion order.
func Export(ctx context.Context, d Deps, input ExportInput) (*ExportOutput, error) {
	now := d.now()
	exportedAt := now.Unix()
	exportsDir := filepath.Join(d.Home, ExportsDir)

	// Determine export path
	exportPath := input.Path
	if exportPath == "" {
		exportPath = defaultExportPath(exportsDir, now)
	}

	// Validate ALL paths (both user-provided and default) for security
	if err := ValidatePath(exportPath, PathCheckWrite, exportsDir, d.config()); err != nil {
		return nil, err
	}

	docs, err := d.Store.Find(ctx, db.Filter{})
	if err != nil {
		return nil, err
	}

	// Ensure parent directory exists
	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	// Write to temp file first, then atomic rename to preserve existing file on failure
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	// Clean up temp file on failure (original file is preserved)
	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	header := archive.ExportHeader{
		RoostExport:   true,
		SchemaVersion: archive.ExportSchemaVersion,
		ExportedAt:    exportedAt,
		Count:         len(docs),
	}
	if err := enc.Encode(header); err != nil {
		return nil, errors.NewInternal(err)
	}

	for _, doc := range docs {
		select {
		case <-ctx.Done():
			return nil, errors.NewCancelled("export")
		default:
		}

		if err := enc.Encode(archive.ArchivedPostToExportRecord(doc)); err != nil {
			return nil, errors.NewInternal(err)
		}
	}

	if err := w.Flush(); err != nil {
		return nil, errors.NewInternal(err)
	}

	// Ensure file is written
	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}

	// Close before atomic replace (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// Check if destination is a symlink (os.Rename would follow it)
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInternal(fmt.Errorf("export path is a symlink"))
	}

	// On Windows, os.Rename fails if the destination exists. Fail safely
	// (preserving the existing file) rather than delete then rename.
	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; overwriting is not supported on Windows yet (choose a new path or delete the existing file)")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	d.log().Info("archive exported", "path", exportPath, "count", len(docs))

	return &ExportOutput{
		Path:       exportPath,
		Count:      len(docs),
		ExportedAt: exportedAt,
	}, nil
}

// defaultExportPath generates the default export path.
// Format: <exportsDir>/roost-<timestamp>.jsonl
func defaultExportPath(exportsDir string, now time.Time) string {
	timestamp := now.Format("2006-01-02T150405")
	return filepath.Join(exportsDir, fmt.Sprintf("roost-%s.jsonl", timestamp))
}
