// Package mediacache keeps downloaded avatar and media images on disk keyed
// by a logical base name, so each image is fetched at most once.
package mediacache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/hpungsan/roost/internal/errors"
	"github.com/hpungsan/roost/internal/logger"
)

// Extensions is the resolution order. The first existing file wins.
var Extensions = []string{"jpg", "png"}

// Cache is one namespace of cached images in a single directory.
type Cache struct {
	dir     string
	fetcher Fetcher
	log     *slog.Logger
}

// New returns a cache rooted at dir. The directory is created on first Store.
func New(dir string, fetcher Fetcher, log *slog.Logger) *Cache {
	if log == nil {
		log = logger.Nop()
	}
	return &Cache{dir: dir, fetcher: fetcher, log: log}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns the absolute location of a cached file name.
func (c *Cache) Path(fileName string) string {
	return filepath.Join(c.dir, fileName)
}

// Resolve returns the cached file name for baseName, or ok=false if none exists.
func (c *Cache) Resolve(baseName string) (string, bool, error) {
	if err := checkBaseName(baseName); err != nil {
		return "", false, err
	}
	for _, ext := range Extensions {
		name := baseName + "." + ext
		info, err := os.Stat(filepath.Join(c.dir, name))
		if err == nil && info.Mode().IsRegular() {
			return name, true, nil
		}
	}
	return "", false, nil
}

// Store downloads sourceURL and writes it as <baseName>.<ext>. It does not
// look for an existing file; callers normally go through Ensure.
func (c *Cache) Store(ctx context.Context, sourceURL, baseName string) (string, error) {
	if err := checkBaseName(baseName); err != nil {
		return "", err
	}

	payload, err := c.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		if ctx.Err() != nil {
			return "", errors.NewCancelled("fetch")
		}
		return "", errors.NewFetchFailure(sourceURL, err)
	}

	name := baseName + "." + extensionFor(payload, sourceURL)
	if err := writeAtomic(c.dir, name, payload.Body); err != nil {
		return "", errors.NewInternal(fmt.Errorf("cache write %s: %w", name, err))
	}

	c.log.Debug("cached image", "file", name, "bytes", len(payload.Body))
	return name, nil
}

// Ensure returns the cached file for baseName, downloading it only when absent.
func (c *Cache) Ensure(ctx context.Context, sourceURL, baseName string) (string, error) {
	name, ok, err := c.Resolve(baseName)
	if err != nil {
		return "", err
	}
	if ok {
		c.log.Debug("cache hit", "file", name)
		return name, nil
	}
	c.log.Debug("cache miss", "base", baseName, "url", sourceURL)
	return c.Store(ctx, sourceURL, baseName)
}

func checkBaseName(baseName string) error {
	if baseName == "" || baseName == "." || baseName == ".." ||
		strings.ContainsAny(baseName, `/\`) || strings.ContainsRune(baseName, 0) {
		return errors.NewInvalidReference(baseName)
	}
	return nil
}

// extensionFor picks jpg or png from the declared type, then the bytes, then
// the URL suffix. Anything else is stored as jpg so Resolve can find it.
func extensionFor(p Payload, sourceURL string) string {
	if mediaType, _, err := mime.ParseMediaType(p.ContentType); err == nil && strings.HasPrefix(mediaType, "image/") {
		if ext := normalizeExt(strings.TrimPrefix(mediaType, "image/")); ext != "" {
			return ext
		}
	}

	detected := mimetype.Detect(p.Body)
	if ext := normalizeExt(strings.TrimPrefix(detected.Extension(), ".")); ext != "" {
		return ext
	}

	if u, err := url.Parse(sourceURL); err == nil {
		if ext := normalizeExt(strings.TrimPrefix(path.Ext(u.Path), ".")); ext != "" {
			return ext
		}
	}
	return "jpg"
}

func normalizeExt(ext string) string {
	switch strings.ToLower(ext) {
	case "jpg", "jpeg", "pjpeg":
		return "jpg"
	case "png":
		return "png"
	}
	return ""
}

// writeAtomic writes data to dir/name through a temp file and rename.
func writeAtomic(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return err
	}
	tempPath := filepath.Join(dir, "."+name+"."+hex.EncodeToString(randBytes)+".tmp")

	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	success := false
	defer func() {
		if f != nil {
			f.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	f = nil

	if err := os.Rename(tempPath, filepath.Join(dir, name)); err != nil {
		return err
	}
	success = true
	return nil
}
