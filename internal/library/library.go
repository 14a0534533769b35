package library

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"readnook/internal/kvstore"
	"readnook/pkg/domain"
)

// Store keys. The backup key holds an identical copy of the primary and
// exists purely to survive corruption or clearing of the primary; the
// mirror is best-effort, not a transaction.
const (
	primaryKey = "userBooks"
	backupKey  = "userBooksBackup"
)

// Store manages the user-added half of the shelf. The in-memory collection
// is authoritative for the session; every mutation is mirrored to the
// key-value store best-effort.
type Store struct {
	mu      sync.Mutex
	kv      kvstore.KV
	extract TextExtractor
	now     func() time.Time
	books   []domain.Book
	loaded  bool
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the id/timestamp clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithExtractor overrides the PDF text extractor.
func WithExtractor(e TextExtractor) Option {
	return func(s *Store) { s.extract = e }
}

// New builds a library store over the given key-value store.
func New(kv kvstore.KV, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		extract: PDFExtractor{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Books returns the user-added collection. The first call reads the
// primary key, falls back to the backup key when the primary is absent or
// empty, and treats anything unreadable as an empty shelf. Load problems
// never surface to the caller.
func (s *Store) Books(ctx context.Context) []domain.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)
	return cloneBooks(s.books)
}

// Shelf returns the built-in catalog followed by the user-added books.
func (s *Store) Shelf(ctx context.Context) []domain.Book {
	return append(CuratedBooks(), s.Books(ctx)...)
}

// Get finds a book by id across the curated catalog and user collection.
func (s *Store) Get(ctx context.Context, id string) (domain.Book, bool) {
	for _, b := range curatedBooks {
		if b.ID == id {
			return b, true
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)
	for _, b := range s.books {
		if b.ID == id {
			return b, true
		}
	}
	return domain.Book{}, false
}

// AddInput carries the add-book form fields.
type AddInput struct {
	Title    string
	Filename string
	Data     []byte
}

// AddOutcome reports a created book together with its non-fatal warnings.
type AddOutcome struct {
	Book domain.Book
	// ExtractFailed is set when PDF text extraction failed; the book is
	// still created because the embedded payload remains viewable.
	ExtractFailed bool
	// PersistErr carries a storage write failure. The book is already in
	// the in-memory collection; the caller reports a dismissible warning.
	PersistErr error
}

// Add validates the form, builds a user book with a fresh user- id and
// prepends it to the collection.
func (s *Store) Add(ctx context.Context, in AddInput) (AddOutcome, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return AddOutcome{}, &ValidationError{Kind: KindMissingTitle}
	}
	if strings.TrimSpace(in.Filename) == "" || len(in.Data) == 0 {
		return AddOutcome{}, &ValidationError{Kind: KindMissingFile}
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(in.Filename), "."))
	if ext != string(domain.FileTypeTxt) && ext != string(domain.FileTypePDF) {
		return AddOutcome{}, &ValidationError{Kind: KindUnsupportedType}
	}

	book := domain.Book{
		ID:       domain.NewUserBookID(s.now()),
		Title:    title,
		FileType: domain.BookFileType(ext),
	}
	var outcome AddOutcome
	if ext == string(domain.FileTypePDF) {
		// Text extraction and payload capture are independent: a failed
		// extraction leaves content empty but keeps the book viewable.
		text, err := s.extract.ExtractText(in.Data)
		if err != nil {
			outcome.ExtractFailed = true
		} else {
			book.Content = text
		}
		book.PDFDataURL = pdfDataURL(in.Data)
	} else {
		book.Content = string(in.Data)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)
	s.books = append([]domain.Book{book}, s.books...)
	outcome.Book = book
	outcome.PersistErr = s.persist(ctx)
	return outcome, nil
}

// Delete removes every book whose id is in ids. Unknown ids are ignored.
// The returned error is a storage warning, never a rejection.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)
	kept := s.books[:0]
	for _, b := range s.books {
		if _, gone := drop[b.ID]; !gone {
			kept = append(kept, b)
		}
	}
	s.books = kept
	return s.persist(ctx)
}

// SetCover replaces the cover of a user book. Unknown or curated ids are
// a no-op.
func (s *Store) SetCover(ctx context.Context, id, imageDataURI string) error {
	if !domain.IsUserBook(id) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)
	changed := false
	for i := range s.books {
		if s.books[i].ID == id {
			s.books[i].Cover = imageDataURI
			changed = true
			break
		}
	}
	if !changed {
		return nil
	}
	return s.persist(ctx)
}

func (s *Store) load(ctx context.Context) {
	if s.loaded {
		return
	}
	books := kvstore.ReadCollection[domain.Book](ctx, s.kv, primaryKey)
	if len(books) == 0 {
		books = kvstore.ReadCollection[domain.Book](ctx, s.kv, backupKey)
	}
	s.books = books
	s.loaded = true
}

// persist serializes once and writes the same payload to both keys.
func (s *Store) persist(ctx context.Context) error {
	payload, err := kvstore.EncodeCollection(s.books)
	if err != nil {
		return &kvstore.StorageError{Key: primaryKey, Err: err}
	}
	if err := s.kv.Set(ctx, primaryKey, payload); err != nil {
		return &kvstore.StorageError{Key: primaryKey, Err: err}
	}
	if err := s.kv.Set(ctx, backupKey, payload); err != nil {
		return &kvstore.StorageError{Key: backupKey, Err: err}
	}
	return nil
}

func cloneBooks(books []domain.Book) []domain.Book {
	out := make([]domain.Book, len(books))
	copy(out, books)
	return out
}
