package db

import (
	"context"
	"crypto/rand"
	"database/sql"
	stderrors "errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/roost/internal/archive"
	"github.com/hpungsan/roost/internal/errors"
)

var errNotLoaded = stderrors.New("store not loaded")

// Filter selects documents by equality. Empty fields are unconstrained,
// so the zero Filter matches every document.
type Filter struct {
	DocID  string
	ID     string
	Handle string
}

// Match reports whether doc satisfies every non-empty field of f.
func (f Filter) Match(doc archive.ArchivedPost) bool {
	if f.DocID != "" && doc.DocID != f.DocID {
		return false
	}
	if f.ID != "" && doc.ID != f.ID {
		return false
	}
	if f.Handle != "" && doc.Post.Handle != f.Handle {
		return false
	}
	return true
}

// Store is the archived-post document store. The whole collection is held in
// memory after Load; every mutation is committed to the backing file before
// the in-memory copy changes. All methods are serialized.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	docs   []archive.ArchivedPost
	loaded bool
	newID  func() (string, error)
}

// Open initializes the backing file under baseDir and loads it.
func Open(ctx context.Context, baseDir string) (*Store, error) {
	database, err := Init(baseDir)
	if err != nil {
		return nil, errors.NewStoreUnavailable("open", err)
	}

	s := New(database)
	if err := s.Load(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an initialized database. Call Load before use.
func New(database *sql.DB) *Store {
	return &Store{
		db:    database,
		newID: generateULID,
	}
}

// DB exposes the underlying handle for maintenance queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the backing file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads the on-disk collection into memory, replacing anything loaded before.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := loadDocuments(ctx, s.db)
	if err != nil {
		return errors.NewStoreUnavailable("load", err)
	}
	s.docs = docs
	s.loaded = true
	return nil
}

// Insert stores doc under a freshly generated DocID and returns the stored copy.
// It does not check doc.ID for uniqueness.
func (s *Store) Insert(ctx context.Context, doc archive.ArchivedPost) (archive.ArchivedPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx, "insert"); err != nil {
		return archive.ArchivedPost{}, err
	}

	id, err := s.newID()
	if err != nil {
		return archive.ArchivedPost{}, errors.NewInternal(err)
	}

	stored := doc.Clone()
	stored.DocID = id
	if stored.Media == nil {
		stored.Media = []archive.MediaAsset{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return archive.ArchivedPost{}, errors.NewStoreUnavailable("insert", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := insertDocument(ctx, tx, stored); err != nil {
		return archive.ArchivedPost{}, errors.NewStoreUnavailable("insert", err)
	}
	if err := tx.Commit(); err != nil {
		return archive.ArchivedPost{}, errors.NewStoreUnavailable("insert", err)
	}

	s.docs = append(s.docs, stored)
	return stored.Clone(), nil
}

// Find returns copies of all documents matching filter, in insertion order.
// No match yields an empty slice.
func (s *Store) Find(ctx context.Context, filter Filter) ([]archive.ArchivedPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx, "find"); err != nil {
		return nil, err
	}

	out := make([]archive.ArchivedPost, 0)
	for _, doc := range s.docs {
		if filter.Match(doc) {
			out = append(out, doc.Clone())
		}
	}
	return out, nil
}

// Remove deletes every document matching filter and returns how many were removed.
// Removing nothing is not an error.
func (s *Store) Remove(ctx context.Context, filter Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx, "remove"); err != nil {
		return 0, err
	}

	var doomed []string
	for _, doc := range s.docs {
		if filter.Match(doc) {
			doomed = append(doomed, doc.DocID)
		}
	}
	if len(doomed) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.NewStoreUnavailable("remove", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, docID := range doomed {
		if err := deleteDocument(ctx, tx, docID); err != nil {
			return 0, errors.NewStoreUnavailable("remove", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.NewStoreUnavailable("remove", err)
	}

	kept := s.docs[:0]
	for _, doc := range s.docs {
		if !filter.Match(doc) {
			kept = append(kept, doc)
		}
	}
	s.docs = kept
	return len(doomed), nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx, "count"); err != nil {
		return 0, err
	}
	return len(s.docs), nil
}

// ready must be called with mu held.
func (s *Store) ready(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return errors.NewCancelled(op)
	}
	if !s.loaded {
		return errors.NewStoreUnavailable(op, errNotLoaded)
	}
	return nil
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
