package ops

import (
	"context"

	"github.com/hpungsan/roost/internal/db"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Handle string // optional filter
}

// ListItem is a one-line summary of an archived post.
type ListItem struct {
	DocID      string `json:"doc_id"`
	ID         string `json:"id"`
	Handle     string `json:"handle"`
	Text       string `json:"text"`
	CreatedAt  string `json:"created_at,omitempty"`
	MediaCount int    `json:"media_count"`
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items []ListItem `json:"items"`
	Total int        `json:"total"`
}

// List returns archived posts in insertion order.
func List(ctx context.Context, store *db.Store, input ListInput) (*ListOutput, error) {
	docs, err := store.Find(ctx, db.Filter{Handle: input.Handle})
	if err != nil {
		return nil, err
	}

	items := make([]ListItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, ListItem{
			DocID:      doc.DocID,
			ID:         doc.ID,
			Handle:     doc.Post.Handle,
			Text:       doc.Post.Text,
			CreatedAt:  doc.Post.CreatedAt,
			MediaCount: len(doc.Media),
		})
	}

	return &ListOutput{Items: items, Total: len(items)}, nil
}
