package ops

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/hpungsan/roost/internal/archive"
	"github.com/hpungsan/roost/internal/config"
	"github.com/hpungsan/roost/internal/db"
	"github.com/hpungsan/roost/internal/errors"
	"github.com/hpungsan/roost/internal/logger"
	"github.com/hpungsan/roost/internal/mediacache"
	"github.com/hpungsan/roost/internal/render"
)

// Cache directories under the data dir.
const (
	IconsCacheDir = "cache/icons"
	MediaCacheDir = "cache/media"
	ExportsDir    = "exports"
)

// PostFetcher retrieves one post from the upstream API.
type PostFetcher interface {
	GetPost(ctx context.Context, id string) (archive.Post, error)
}

// ImageCache is the part of a media cache the operations use.
type ImageCache interface {
	Ensure(ctx context.Context, sourceURL, baseName string) (string, error)
	Path(fileName string) string
}

// Deps carries the collaborators shared by all operations.
type Deps struct {
	Home     string // data dir
	Config   *config.Config
	Store    *db.Store
	Fetcher  PostFetcher // only Add needs one
	Icons    ImageCache
	Media    ImageCache
	Renderer *render.Renderer
	Linker   render.AutoLinker
	Log      *slog.Logger
	Now      func() time.Time
}

// NewDeps wires the default caches, renderer and linker around store.
func NewDeps(home string, cfg *config.Config, store *db.Store, fetcher PostFetcher, log *slog.Logger) Deps {
	if log == nil {
		log = logger.Nop()
	}
	images := mediacache.NewHTTPFetcher(cfg.Timeout())
	return Deps{
		Home:     home,
		Config:   cfg,
		Store:    store,
		Fetcher:  fetcher,
		Icons:    mediacache.New(filepath.Join(home, IconsCacheDir), images, log),
		Media:    mediacache.New(filepath.Join(home, MediaCacheDir), images, log),
		Renderer: render.NewRenderer(),
		Linker:   render.EntityLinker{},
		Log:      log,
		Now:      time.Now,
	}
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) log() *slog.Logger {
	if d.Log != nil {
		return d.Log
	}
	return logger.Nop()
}

func (d Deps) config() *config.Config {
	if d.Config != nil {
		return d.Config
	}
	return config.DefaultConfig()
}

// parseReference validates a post URL against the configured hosts.
func (d Deps) parseReference(raw string) (archive.Reference, error) {
	ref, ok := archive.ParseReference(raw, d.config().AllowedHosts)
	if !ok {
		return archive.Reference{}, errors.NewInvalidReference(raw)
	}
	return ref, nil
}
