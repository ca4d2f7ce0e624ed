package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hpungsan/roost/internal/archive"
)

// insertDocument writes one document row inside tx.
func insertDocument(ctx context.Context, tx *sql.Tx, doc archive.ArchivedPost) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents (doc_id, post_id, handle, doc, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query, doc.DocID, doc.ID, doc.Post.Handle, string(data), time.Now().Unix())
	return err
}

// deleteDocument removes one document row by store id inside tx.
func deleteDocument(ctx context.Context, tx *sql.Tx, docID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE doc_id = ?`, docID)
	return err
}

// loadDocuments reads every document in insertion order.
func loadDocuments(ctx context.Context, db *sql.DB) ([]archive.ArchivedPost, error) {
	rows, err := db.QueryContext(ctx, `SELECT doc_id, doc FROM documents ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]archive.ArchivedPost, 0)
	for rows.Next() {
		var docID, raw string
		if err := rows.Scan(&docID, &raw); err != nil {
			return nil, err
		}

		var doc archive.ArchivedPost
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("corrupt document %s: %w", docID, err)
		}
		// The column is authoritative for the store id.
		doc.DocID = docID
		if doc.Media == nil {
			doc.Media = []archive.MediaAsset{}
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}
