package ops

import (
	"context"
	"fmt"

	"github.com/hpungsan/roost/internal/archive"
	"github.com/hpungsan/roost/internal/db"
	"github.com/hpungsan/roost/internal/errors"
)

// AddInput contains parameters for the Add operation.
type AddInput struct {
	URL string // required, post permalink
}

// AddOutput contains the result of the Add operation.
type AddOutput struct {
	DocID        string               `json:"doc_id"`
	ID           string               `json:"id"`
	Handle       string               `json:"handle"`
	IconFileName string               `json:"icon_file_name"`
	Media        []archive.MediaAsset `json:"media"`
}

// Add fetches a post, caches its avatar and then each attachment in order,
// and stores the combined document. An already archived id is rejected
// before any network call.
func Add(ctx context.Context, d Deps, input AddInput) (*AddOutput, error) {
	ref, err := d.parseReference(input.URL)
	if err != nil {
		return nil, err
	}

	existing, err := d.Store.Find(ctx, db.Filter{ID: ref.ID})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, errors.NewDuplicateReference(ref.ID)
	}

	if d.Fetcher == nil {
		return nil, errors.NewInvalidRequest("post API client is not configured")
	}
	post, err := d.Fetcher.GetPost(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	if post.Handle == "" {
		post.Handle = ref.Handle
	}

	doc := archive.ArchivedPost{
		ID:    ref.ID,
		Post:  post,
		Media: make([]archive.MediaAsset, 0, len(post.Media)),
	}

	if post.AvatarURL != "" {
		icon, err := ensureImage(ctx, d.Icons, post.AvatarURL, post.Handle)
		if err != nil {
			return nil, err
		}
		doc.IconFileName = icon
	}

	for _, m := range post.Media {
		name, err := ensureImage(ctx, d.Media, m.MediaURL, m.ID)
		if err != nil {
			return nil, err
		}
		doc.Media = append(doc.Media, archive.MediaAsset{
			FileName: name,
			Width:    m.Width,
			Height:   m.Height,
		})
	}

	stored, err := d.Store.Insert(ctx, doc)
	if err != nil {
		return nil, err
	}

	d.log().Info("post archived", "id", stored.ID, "handle", post.Handle, "media", len(stored.Media))

	return &AddOutput{
		DocID:        stored.DocID,
		ID:           stored.ID,
		Handle:       stored.Post.Handle,
		IconFileName: stored.IconFileName,
		Media:        stored.Media,
	}, nil
}

// ensureImage caches one payload image. Cache names come from the payload,
// so a name the cache refuses is a fetch failure, not a bad reference.
func ensureImage(ctx context.Context, cache ImageCache, sourceURL, baseName string) (string, error) {
	name, err := cache.Ensure(ctx, sourceURL, baseName)
	if errors.Is(err, errors.ErrInvalidReference) {
		return "", errors.NewFetchFailure(sourceURL, fmt.Errorf("unusable image name %q", baseName))
	}
	return name, err
}
