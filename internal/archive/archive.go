// Package archive defines the archived-post data model shared by the store,
// the media cache, and the renderer.
package archive

// Post is the subset of an API post payload the archive reads.
// Values are treated as immutable once fetched.
type Post struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	Handle    string        `json:"handle"`
	AvatarURL string        `json:"avatar_url"`
	CreatedAt string        `json:"created_at,omitempty"`
	URLs      []URLEntity   `json:"urls"`
	Media     []MediaEntity `json:"media,omitempty"`
}

// URLEntity marks a link inside the post text.
type URLEntity struct {
	URL         string `json:"url"`
	ExpandedURL string `json:"expanded_url"`
	DisplayURL  string `json:"display_url"`
	Indices     [2]int `json:"indices"`
}

// MediaEntity is an image attached to a post.
type MediaEntity struct {
	ID       string `json:"id"`
	MediaURL string `json:"media_url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// ArchivedPost is the unit of storage: the original payload plus references
// to the locally cached images.
type ArchivedPost struct {
	// DocID is generated by the store on insert (ULID); distinct from ID.
	DocID string `json:"_id"`

	// ID is the source post identifier (digits).
	ID string `json:"id"`

	Post         Post         `json:"original_payload"`
	IconFileName string       `json:"icon_file_name"`
	Media        []MediaAsset `json:"media"`
}

// MediaAsset references a cached media file and its natural size.
// Display dimensions are computed at render time and never stored here.
type MediaAsset struct {
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Clone returns a deep copy so callers can't mutate store-owned slices.
func (p ArchivedPost) Clone() ArchivedPost {
	c := p
	if p.Post.URLs != nil {
		c.Post.URLs = append(make([]URLEntity, 0, len(p.Post.URLs)), p.Post.URLs...)
	}
	if p.Post.Media != nil {
		c.Post.Media = append(make([]MediaEntity, 0, len(p.Post.Media)), p.Post.Media...)
	}
	if p.Media != nil {
		c.Media = append(make([]MediaAsset, 0, len(p.Media)), p.Media...)
	}
	return c
}
