package ops

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/roost/internal/db"
	"github.com/hpungsan/roost/internal/errors"
	"github.com/hpungsan/roost/internal/render"
	"github.com/hpungsan/roost/internal/snapshot"
)

// Snapshot subdirectories holding copied cache files.
const (
	SnapshotIconsDir = "icons"
	SnapshotMediaDir = "media"
)

// OutputInput contains parameters for the Output operation.
type OutputInput struct {
	Root  string // optional, default: config output_root
	Title string // optional, default: config site_title
}

// OutputOutput contains the result of the Output operation.
type OutputOutput struct {
	Dir   string `json:"dir"`
	Posts int    `json:"posts"`
	Files int    `json:"files"` // copied icon and media files
}

// Output renders every archived post into a freshly allocated snapshot
// directory. An empty archive returns EMPTY_ARCHIVE before anything is
// allocated or written.
func Output(ctx context.Context, d Deps, input OutputInput) (*OutputOutput, error) {
	posts, err := d.Store.Find(ctx, db.Filter{})
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, errors.NewEmptyArchive()
	}

	cfg := d.config()
	root := firstNonEmpty(input.Root, cfg.OutputRoot, ".")
	title := firstNonEmpty(input.Title, cfg.SiteTitle, "Roost")

	// Optional inputs are read before anything is written.
	var about template.HTML
	if cfg.AboutPath != "" {
		md, err := os.ReadFile(cfg.AboutPath)
		if err != nil {
			return nil, errors.NewInternal(fmt.Errorf("read about file: %w", err))
		}
		if about, err = render.RenderMarkdown(md); err != nil {
			return nil, errors.NewInternal(fmt.Errorf("render about file: %w", err))
		}
	}

	dir, err := snapshot.Allocate(root, d.now())
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("allocate snapshot directory: %w", err))
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("create output root: %w", err))
	}
	// Mkdir, not MkdirAll: a directory appearing since Allocate must not be reused.
	if err := os.Mkdir(dir, 0755); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("create snapshot directory: %w", err))
	}
	for _, sub := range []string{SnapshotIconsDir, SnapshotMediaDir} {
		if err := os.Mkdir(filepath.Join(dir, sub), 0755); err != nil {
			return nil, errors.NewInternal(fmt.Errorf("create %s directory: %w", sub, err))
		}
	}

	copied := 0
	seen := make(map[string]bool)
	copyOnce := func(cache ImageCache, sub, name string) error {
		key := sub + "/" + name
		if name == "" || seen[key] {
			return nil
		}
		seen[key] = true
		if err := ctx.Err(); err != nil {
			return errors.NewCancelled("output")
		}
		if err := copyFile(cache.Path(name), filepath.Join(dir, sub, name)); err != nil {
			return errors.NewInternal(fmt.Errorf("copy %s: %w", key, err))
		}
		d.log().Debug("copied cached image", "file", key)
		copied++
		return nil
	}
	for _, p := range posts {
		if err := copyOnce(d.Icons, SnapshotIconsDir, p.IconFileName); err != nil {
			return nil, err
		}
		for _, m := range p.Media {
			if err := copyOnce(d.Media, SnapshotMediaDir, m.FileName); err != nil {
				return nil, err
			}
		}
	}

	var siteIcon string
	if cfg.SiteIcon != "" {
		siteIcon = "icon" + strings.ToLower(filepath.Ext(cfg.SiteIcon))
		if err := copyFile(cfg.SiteIcon, filepath.Join(dir, siteIcon)); err != nil {
			return nil, errors.NewInternal(fmt.Errorf("copy site icon: %w", err))
		}
	}

	renderer := d.Renderer
	if renderer == nil {
		renderer = render.NewRenderer()
	}
	page := render.Page{
		Title:       title,
		GeneratedAt: d.now(),
		About:       about,
		SiteIcon:    siteIcon,
		Posts:       render.BuildViews(posts, d.Linker),
	}
	if err := renderer.WriteSnapshot(dir, page); err != nil {
		return nil, errors.NewInternal(err)
	}

	d.log().Info("snapshot written", "dir", dir, "posts", len(posts), "files", copied)

	return &OutputOutput{
		Dir:   dir,
		Posts: len(posts),
		Files: copied,
	}, nil
}

// copyFile copies src to a new file dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
