package album

import (
	"context"
	"strings"
	"sync"
	"time"

	"readnook/internal/kvstore"
	"readnook/pkg/domain"
)

const photosKey = "customAlbumPhotos"

// defaultCaption labels generated photos when the caller supplies none.
const defaultCaption = "AI 생성 이미지"

// Store manages generated album photos. Like the library, the in-memory
// collection is authoritative for the session and mirrored to the
// key-value store best-effort. Curated photos never pass through here.
type Store struct {
	mu     sync.Mutex
	kv     kvstore.KV
	now    func() time.Time
	photos []domain.Photo
	loaded bool
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the id/date clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New builds an album store over the given key-value store.
func New(kv kvstore.KV, opts ...Option) *Store {
	s := &Store{kv: kv, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Photos returns the generated collection, newest first. Malformed or
// missing storage reads as an empty album.
func (s *Store) Photos(ctx context.Context) []domain.Photo {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)
	return clonePhotos(s.photos)
}

// All returns the generated photos followed by the curated set.
func (s *Store) All(ctx context.Context) []domain.Photo {
	return append(s.Photos(ctx), CuratedPhotos()...)
}

// Get finds a photo by id across the generated and curated sets.
func (s *Store) Get(ctx context.Context, id string) (domain.Photo, bool) {
	s.mu.Lock()
	s.load(ctx)
	for _, p := range s.photos {
		if p.ID == id {
			s.mu.Unlock()
			return p, true
		}
	}
	s.mu.Unlock()
	for _, p := range curatedPhotos {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Photo{}, false
}

// AddGenerated records an assistant-generated image as a new photo. The
// entry is always prepended: the sidebar's recent thumbnails depend on
// newest-first order.
func (s *Store) AddGenerated(ctx context.Context, src, caption, prompt, bookTitle string) (domain.Photo, error) {
	now := s.now()
	if strings.TrimSpace(caption) == "" {
		caption = defaultCaption
	}
	quote := prompt
	if quote == "" {
		quote = caption
	}
	if strings.TrimSpace(bookTitle) == "" {
		bookTitle = "AI 이미지"
	}
	photo := domain.Photo{
		ID:        domain.NewGeneratedPhotoID(now),
		Src:       src,
		Caption:   caption,
		Quote:     quote,
		BookTitle: bookTitle,
		Date:      domain.PhotoDate(now),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)
	s.photos = append([]domain.Photo{photo}, s.photos...)
	return photo, s.persist(ctx)
}

// UpdateFields is the partial-update payload for a generated photo.
type UpdateFields struct {
	Caption *string
	Quote   *string
}

// Update edits caption and/or quote of a generated photo. Curated and
// unknown ids are a no-op: only custom entries are editable.
func (s *Store) Update(ctx context.Context, id string, fields UpdateFields) error {
	if !domain.IsGeneratedPhoto(id) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)
	changed := false
	for i := range s.photos {
		if s.photos[i].ID != id {
			continue
		}
		if fields.Caption != nil {
			s.photos[i].Caption = *fields.Caption
			changed = true
		}
		if fields.Quote != nil {
			s.photos[i].Quote = *fields.Quote
			changed = true
		}
		break
	}
	if !changed {
		return nil
	}
	return s.persist(ctx)
}

// Delete removes every photo whose id is in ids. Unknown ids are ignored.
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
	kept := s.photos[:0]
	for _, p := range s.photos {
		if _, gone := drop[p.ID]; !gone {
			kept = append(kept, p)
		}
	}
	s.photos = kept
	return s.persist(ctx)
}

// RecentThumbnails returns the first n generated photos, or the curated
// fallback when nothing has been generated yet.
func (s *Store) RecentThumbnails(ctx context.Context, n int) []domain.Photo {
	if n <= 0 {
		return nil
	}
	photos := s.Photos(ctx)
	if len(photos) == 0 {
		photos = CuratedPhotos()
	}
	if len(photos) > n {
		photos = photos[:n]
	}
	return photos
}

func (s *Store) load(ctx context.Context) {
	if s.loaded {
		return
	}
	s.photos = kvstore.ReadCollection[domain.Photo](ctx, s.kv, photosKey)
	s.loaded = true
}

func (s *Store) persist(ctx context.Context) error {
	payload, err := kvstore.EncodeCollection(s.photos)
	if err != nil {
		return &kvstore.StorageError{Key: photosKey, Err: err}
	}
	if err := s.kv.Set(ctx, photosKey, payload); err != nil {
		return &kvstore.StorageError{Key: photosKey, Err: err}
	}
	return nil
}

func clonePhotos(photos []domain.Photo) []domain.Photo {
	out := make([]domain.Photo, len(photos))
	copy(out, photos)
	return out
}
