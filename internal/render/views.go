package render

import (
	"fmt"
	"html/template"

	"github.com/hpungsan/roost/internal/archive"
)

// MediaView is one attachment with its computed display size.
type MediaView struct {
	FileName      string
	Width         int
	Height        int
	DisplayWidth  float64
	DisplayHeight float64
}

// PostView is the template-facing form of an archived post.
type PostView struct {
	DocID        string
	ID           string
	Handle       string
	CreatedAt    string
	Permalink    string
	IconFileName string
	Text         template.HTML
	Media        []MediaView
}

// BuildViews derives one view per post, in the order given. The posts are not modified.
func BuildViews(posts []archive.ArchivedPost, linker AutoLinker) []PostView {
	if linker == nil {
		linker = EntityLinker{}
	}

	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		media := make([]MediaView, 0, len(p.Media))
		for _, m := range p.Media {
			dw, dh := Scale(m.Width, m.Height)
			media = append(media, MediaView{
				FileName:      m.FileName,
				Width:         m.Width,
				Height:        m.Height,
				DisplayWidth:  dw,
				DisplayHeight: dh,
			})
		}

		views = append(views, PostView{
			DocID:        p.DocID,
			ID:           p.ID,
			Handle:       p.Post.Handle,
			CreatedAt:    p.Post.CreatedAt,
			Permalink:    fmt.Sprintf("https://twitter.com/%s/status/%s", p.Post.Handle, p.ID),
			IconFileName: p.IconFileName,
			Text:         linker.AutoLink(p.Post.Text, p.Post.URLs),
			Media:        media,
		})
	}
	return views
}
