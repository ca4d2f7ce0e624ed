package ops

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hpungsan/roost/internal/archive"
	"github.com/hpungsan/roost/internal/config"
	"github.com/hpungsan/roost/internal/db"
	"github.com/hpungsan/roost/internal/errors"
	"github.com/hpungsan/roost/internal/mediacache"
	"github.com/hpungsan/roost/internal/render"
)

var testNow = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// fakeAPI serves posts from a map and counts calls.
type fakeAPI struct {
	mu    sync.Mutex
	posts map[string]archive.Post
	calls int
}

func (f *fakeAPI) GetPost(_ context.Context, id string) (archive.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	p, ok := f.posts[id]
	if !ok {
		return archive.Post{}, errors.NewFetchFailure("post "+id, fmt.Errorf("api returned 404"))
	}
	return p, nil
}

// fakeImages serves fixed JPEG bytes for any URL, failing for URLs containing "broken".
type fakeImages struct {
	mu   sync.Mutex
	urls []string
}

func (f *fakeImages) Fetch(_ context.Context, url string) (mediacache.Payload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	if strings.Contains(url, "broken") {
		return mediacache.Payload{}, fmt.Errorf("upstream returned 500")
	}
	return mediacache.Payload{Body: []byte("\xff\xd8\xff\xe0fake-jpeg"), ContentType: "image/jpeg"}, nil
}

func (f *fakeImages) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

type testEnv struct {
	deps   Deps
	api    *fakeAPI
	images *fakeImages
	out    string // output root
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	home := t.TempDir()
	store, err := db.Open(context.Background(), home)
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := config.DefaultConfig()
	cfg.OutputRoot = t.TempDir()

	api := &fakeAPI{posts: map[string]archive.Post{
		"20":  samplePost("20", "jack", "https://t.co/1", "900", "901"),
		"21":  samplePost("21", "jack", ""),
		"30":  samplePost("30", "biz", ""),
		"666": samplePost("666", "evil", "", "broken"),
	}}
	images := &fakeImages{}

	return &testEnv{
		deps: Deps{
			Home:     home,
			Config:   cfg,
			Store:    store,
			Fetcher:  api,
			Icons:    mediacache.New(filepath.Join(home, IconsCacheDir), images, nil),
			Media:    mediacache.New(filepath.Join(home, MediaCacheDir), images, nil),
			Renderer: render.NewRenderer(),
			Linker:   render.EntityLinker{},
			Now:      func() time.Time { return testNow },
		},
		api:    api,
		images: images,
		out:    cfg.OutputRoot,
	}
}

func samplePost(id, handle, link string, mediaIDs ...string) archive.Post {
	p := archive.Post{
		ID:        id,
		Text:      "post " + id,
		Handle:    handle,
		AvatarURL: "https://pbs.twimg.com/profile_images/" + handle + "_normal.jpg",
	}
	if link != "" {
		p.Text += " " + link
		p.URLs = []archive.URLEntity{{URL: link, ExpandedURL: "https://example.com/" + id, DisplayURL: "example.com/" + id}}
	}
	for i, m := range mediaIDs {
		p.Media = append(p.Media, archive.MediaEntity{
			ID:       m,
			MediaURL: "https://pbs.twimg.com/media/" + m + ".jpg",
			Width:    800 - 500*i,
			Height:   600,
		})
	}
	return p
}

func postURL(handle, id string) string {
	return "https://twitter.com/" + handle + "/status/" + id
}
