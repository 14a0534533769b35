package kvstore

import (
	"context"
	"testing"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()

	if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := kv.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, ok, err := kv.Get(ctx, "k")
	if err != nil || !ok || val != "v" {
		t.Fatalf("get: val=%q ok=%v err=%v", val, ok, err)
	}
	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "k"); ok {
		t.Fatal("key should be gone after delete")
	}
	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("deleting a missing key should not error: %v", err)
	}
}

func TestFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	if err := kv.Set(ctx, "userBooks", `[{"id":"user-1"}]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, ok, err := kv.Get(ctx, "userBooks")
	if err != nil || !ok || val != `[{"id":"user-1"}]` {
		t.Fatalf("get: val=%q ok=%v err=%v", val, ok, err)
	}
	if err := kv.Delete(ctx, "userBooks"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "userBooks"); ok {
		t.Fatal("key should be gone after delete")
	}
}

func TestFileRequiresBasePath(t *testing.T) {
	if _, err := NewFile("  "); err == nil {
		t.Fatal("expected error for empty base path")
	}
}

func TestReadCollectionDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()

	type item struct {
		ID string `json:"id"`
	}

	if got := ReadCollection[item](ctx, kv, "absent"); len(got) != 0 {
		t.Fatalf("absent key: got %d items", len(got))
	}

	_ = kv.Set(ctx, "broken", "{not json")
	if got := ReadCollection[item](ctx, kv, "broken"); len(got) != 0 {
		t.Fatalf("malformed payload: got %d items", len(got))
	}

	_ = kv.Set(ctx, "object", `{"id":"x"}`)
	if got := ReadCollection[item](ctx, kv, "object"); len(got) != 0 {
		t.Fatalf("non-array payload: got %d items", len(got))
	}

	_ = kv.Set(ctx, "good", `[{"id":"a"},{"id":"b"}]`)
	got := ReadCollection[item](ctx, kv, "good")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("unexpected collection: %+v", got)
	}
}

func TestEncodeCollectionNilIsEmptyArray(t *testing.T) {
	encoded, err := EncodeCollection[string](nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if encoded != "[]" {
		t.Fatalf("nil collection = %q, want []", encoded)
	}
}
