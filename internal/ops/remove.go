package ops

import (
	"context"

	"github.com/hpungsan/roost/internal/db"
)

// RemoveInput contains parameters for the Remove operation.
type RemoveInput struct {
	URL string // required, post permalink
}

// RemoveOutput contains the result of the Remove operation.
type RemoveOutput struct {
	ID      string `json:"id"`
	Removed int    `json:"removed"`
}

// Remove deletes every archived copy of the referenced post. Cached images
// are left in place. Removing an unknown post is not an error.
func Remove(ctx context.Context, d Deps, input RemoveInput) (*RemoveOutput, error) {
	ref, err := d.parseReference(input.URL)
	if err != nil {
		return nil, err
	}

	n, err := d.Store.Remove(ctx, db.Filter{ID: ref.ID})
	if err != nil {
		return nil, err
	}

	if n == 0 {
		d.log().Info("post not archived, nothing removed", "id", ref.ID)
	} else {
		d.log().Info("post removed", "id", ref.ID, "count", n)
	}
	return &RemoveOutput{ID: ref.ID, Removed: n}, nil
}
