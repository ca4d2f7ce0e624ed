package archive

// ExportSchemaVersion is written in the header line of every export file.
const ExportSchemaVersion = "1.0"

// ExportHeader is the first line of a JSONL export file.
type ExportHeader struct {
	RoostExport   bool   `json:"_roost_export"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    int64  `json:"exported_at"`
	Count         int    `json:"count"`
}

// ExportRecord is one line of a JSONL export file. The header line is
// recognized by RoostExport; every other line is a full ArchivedPost.
type ExportRecord struct {
	// Header detection field - true only for header line
	RoostExport bool `json:"_roost_export,omitempty"`

	ArchivedPost
}

// ToArchivedPost converts an ExportRecord back to a document ready for insert.
// The store assigns a fresh DocID on insert, so the exported one is dropped.
func (r *ExportRecord) ToArchivedPost() ArchivedPost {
	p := r.ArchivedPost.Clone()
	p.DocID = ""
	if p.ID == "" {
		p.ID = p.Post.ID
	}
	return p
}

// ArchivedPostToExportRecord converts a stored document to an export line.
func ArchivedPostToExportRecord(p ArchivedPost) *ExportRecord {
	return &ExportRecord{ArchivedPost: p}
}
