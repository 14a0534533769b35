package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"readnook/internal/kvstore"
	"readnook/pkg/domain"
)

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) ExtractText([]byte) (string, error) {
	return s.text, s.err
}

type failingKV struct {
	*kvstore.Memory
	fail bool
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if f.fail {
		return fmt.Errorf("quota exceeded")
	}
	return f.Memory.Set(ctx, key, value)
}

// tickingClock hands out strictly increasing millisecond timestamps so
// ids never collide within a test.
func tickingClock() func() time.Time {
	base := time.UnixMilli(1700000000000)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Millisecond)
	}
}

func newTestStore(kv kvstore.KV, opts ...Option) *Store {
	opts = append([]Option{WithClock(tickingClock())}, opts...)
	return New(kv, opts...)
}

func TestAddValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(kvstore.NewMemory())

	cases := []struct {
		name string
		in   AddInput
		kind ValidationKind
	}{
		{"missing title", AddInput{Filename: "a.txt", Data: []byte("x")}, KindMissingTitle},
		{"blank title", AddInput{Title: "   ", Filename: "a.txt", Data: []byte("x")}, KindMissingTitle},
		{"missing file", AddInput{Title: "제목"}, KindMissingFile},
		{"unsupported type", AddInput{Title: "제목", Filename: "a.epub", Data: []byte("x")}, KindUnsupportedType},
	}
	for _, tc := range cases {
		_, err := s.Add(ctx, tc.in)
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Kind != tc.kind {
			t.Fatalf("%s: err = %v, want kind %s", tc.name, err, tc.kind)
		}
	}
	if got := s.Books(ctx); len(got) != 0 {
		t.Fatalf("rejected input must not change the collection, got %d books", len(got))
	}
}

func TestAddTxtBookPrepends(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(kvstore.NewMemory())

	first, err := s.Add(ctx, AddInput{Title: "첫 번째", Filename: "a.txt", Data: []byte("본문 하나")})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	second, err := s.Add(ctx, AddInput{Title: "두 번째", Filename: "B.TXT", Data: []byte("본문 둘")})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if !domain.IsUserBook(first.Book.ID) {
		t.Fatalf("expected user- id, got %q", first.Book.ID)
	}
	if first.Book.FileType != domain.FileTypeTxt || first.Book.Content != "본문 하나" {
		t.Fatalf("unexpected txt book: %+v", first.Book)
	}
	if second.Book.FileType != domain.FileTypeTxt {
		t.Fatalf("uppercase extension should still be txt, got %q", second.Book.FileType)
	}

	books := s.Books(ctx)
	if len(books) != 2 || books[0].ID != second.Book.ID || books[1].ID != first.Book.ID {
		t.Fatalf("expected newest-first order, got %+v", books)
	}
}

func TestAddPDFExtractionFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(kvstore.NewMemory(), WithExtractor(stubExtractor{err: fmt.Errorf("no text layer")}))

	out, err := s.Add(ctx, AddInput{Title: "테스트", Filename: "a.pdf", Data: []byte("%PDF-1.4 fake")})
	if err != nil {
		t.Fatalf("add should not reject on extraction failure: %v", err)
	}
	if !out.ExtractFailed {
		t.Fatal("expected extraction warning")
	}
	if out.Book.FileType != domain.FileTypePDF || out.Book.Content != "" {
		t.Fatalf("unexpected book: %+v", out.Book)
	}
	if !strings.HasPrefix(out.Book.PDFDataURL, "data:application/pdf;base64,") || out.Book.PDFDataURL == "data:application/pdf;base64," {
		t.Fatalf("expected embedded pdf payload, got %q", out.Book.PDFDataURL)
	}
}

func TestAddPDFWithTextLayer(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(kvstore.NewMemory(), WithExtractor(stubExtractor{text: "추출된 본문"}))

	out, err := s.Add(ctx, AddInput{Title: "PDF 책", Filename: "b.pdf", Data: []byte("%PDF-1.4 fake")})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if out.ExtractFailed || out.Book.Content != "추출된 본문" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestSaveWritesBothKeysIdentically(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	s := newTestStore(kv)

	if _, err := s.Add(ctx, AddInput{Title: "책", Filename: "a.txt", Data: []byte("x")}); err != nil {
		t.Fatalf("add: %v", err)
	}

	primary, ok, _ := kv.Get(ctx, "userBooks")
	if !ok {
		t.Fatal("primary key missing")
	}
	backup, ok, _ := kv.Get(ctx, "userBooksBackup")
	if !ok {
		t.Fatal("backup key missing")
	}
	if primary != backup {
		t.Fatalf("dual write diverged:\nprimary %s\nbackup  %s", primary, backup)
	}
}

func TestRoundTripThroughStore(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	s := newTestStore(kv)

	added, err := s.Add(ctx, AddInput{Title: "왕복", Filename: "a.txt", Data: []byte("내용")})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	reloaded := newTestStore(kv).Books(ctx)
	if len(reloaded) != 1 || reloaded[0] != added.Book {
		t.Fatalf("round-trip mismatch: %+v", reloaded)
	}
}

func TestLoadFallsBackToBackupKey(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	s := newTestStore(kv)

	added, err := s.Add(ctx, AddInput{Title: "백업", Filename: "a.txt", Data: []byte("x")})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	// Simulate the primary key being cleared while the backup survives.
	if err := kv.Delete(ctx, "userBooks"); err != nil {
		t.Fatalf("clear primary: %v", err)
	}

	books := newTestStore(kv).Books(ctx)
	if len(books) != 1 || books[0].ID != added.Book.ID {
		t.Fatalf("expected backup contents, got %+v", books)
	}
}

func TestLoadTreatsMalformedDataAsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	_ = kv.Set(ctx, "userBooks", "{corrupt")
	_ = kv.Set(ctx, "userBooksBackup", "also corrupt")

	if books := newTestStore(kv).Books(ctx); len(books) != 0 {
		t.Fatalf("corrupt storage must read as empty, got %+v", books)
	}
}

func TestDeleteIsBatchedAndIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(kvstore.NewMemory())

	a, _ := s.Add(ctx, AddInput{Title: "a", Filename: "a.txt", Data: []byte("x")})
	b, _ := s.Add(ctx, AddInput{Title: "b", Filename: "b.txt", Data: []byte("x")})
	c, _ := s.Add(ctx, AddInput{Title: "c", Filename: "c.txt", Data: []byte("x")})

	if err := s.Delete(ctx, []string{a.Book.ID, c.Book.ID, "user-absent"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	books := s.Books(ctx)
	if len(books) != 1 || books[0].ID != b.Book.ID {
		t.Fatalf("expected only %s to remain, got %+v", b.Book.ID, books)
	}

	// Deleting the same ids again changes nothing.
	if err := s.Delete(ctx, []string{a.Book.ID, c.Book.ID}); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	if got := s.Books(ctx); len(got) != 1 {
		t.Fatalf("repeat delete changed the collection: %+v", got)
	}
}

func TestReplayEquivalence(t *testing.T) {
	ctx := context.Background()

	run := func() []domain.Book {
		s := newTestStore(kvstore.NewMemory())
		var ids []string
		for _, title := range []string{"one", "two", "three", "four"} {
			out, err := s.Add(ctx, AddInput{Title: title, Filename: title + ".txt", Data: []byte(title)})
			if err != nil {
				t.Fatalf("add %s: %v", title, err)
			}
			ids = append(ids, out.Book.ID)
		}
		if err := s.Delete(ctx, []string{ids[1], ids[3]}); err != nil {
			t.Fatalf("delete: %v", err)
		}
		books := s.Books(ctx)
		// Strip the clock-derived ids so both runs compare on content.
		for i := range books {
			books[i].ID = ""
		}
		return books
	}

	first := run()
	second := run()
	if len(first) != len(second) {
		t.Fatalf("replay length mismatch: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("replay mismatch at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestSetCover(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(kvstore.NewMemory())

	added, _ := s.Add(ctx, AddInput{Title: "표지", Filename: "a.txt", Data: []byte("x")})
	if err := s.SetCover(ctx, added.Book.ID, "data:image/png;base64,abc"); err != nil {
		t.Fatalf("set cover: %v", err)
	}
	if got := s.Books(ctx)[0].Cover; got != "data:image/png;base64,abc" {
		t.Fatalf("cover = %q", got)
	}

	// Curated and unknown ids are no-ops.
	if err := s.SetCover(ctx, "romeoandjuliet", "data:image/png;base64,zzz"); err != nil {
		t.Fatalf("curated set cover: %v", err)
	}
	if err := s.SetCover(ctx, "user-99999", "data:image/png;base64,zzz"); err != nil {
		t.Fatalf("unknown set cover: %v", err)
	}
}

func TestPersistFailureKeepsMemoryAuthoritative(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{Memory: kvstore.NewMemory(), fail: true}
	s := newTestStore(kv)

	out, err := s.Add(ctx, AddInput{Title: "저장 실패", Filename: "a.txt", Data: []byte("x")})
	if err != nil {
		t.Fatalf("add must not reject on storage failure: %v", err)
	}
	var serr *kvstore.StorageError
	if !errors.As(out.PersistErr, &serr) {
		t.Fatalf("expected StorageError warning, got %v", out.PersistErr)
	}
	if books := s.Books(ctx); len(books) != 1 || books[0].ID != out.Book.ID {
		t.Fatalf("in-memory collection lost the book: %+v", books)
	}
}

func TestShelfPutsCuratedBooksFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(kvstore.NewMemory())
	added, _ := s.Add(ctx, AddInput{Title: "내 책", Filename: "a.txt", Data: []byte("x")})

	shelf := s.Shelf(ctx)
	if len(shelf) != len(CuratedBooks())+1 {
		t.Fatalf("shelf size = %d", len(shelf))
	}
	if shelf[0].ID != "romeoandjuliet" {
		t.Fatalf("curated books must lead the shelf, got %q first", shelf[0].ID)
	}
	if shelf[len(shelf)-1].ID != added.Book.ID {
		t.Fatalf("user book missing from shelf tail: %+v", shelf)
	}
}

func TestGetFindsCuratedAndUserBooks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(kvstore.NewMemory())
	added, _ := s.Add(ctx, AddInput{Title: "조회", Filename: "a.txt", Data: []byte("x")})

	if b, ok := s.Get(ctx, "romeoandjuliet"); !ok || b.Title != "로미오와 줄리엣" {
		t.Fatalf("curated get: %+v ok=%v", b, ok)
	}
	if b, ok := s.Get(ctx, added.Book.ID); !ok || b.Title != "조회" {
		t.Fatalf("user get: %+v ok=%v", b, ok)
	}
	if _, ok := s.Get(ctx, "nope"); ok {
		t.Fatal("unknown id should not resolve")
	}
}
