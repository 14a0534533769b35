package kvstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)
	kv := NewRedis(srv.Addr(), "", "test")

	if _, ok, err := kv.Get(ctx, "userBooks"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := kv.Set(ctx, "userBooks", "[]"); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, ok, err := kv.Get(ctx, "userBooks")
	if err != nil || !ok || val != "[]" {
		t.Fatalf("get: val=%q ok=%v err=%v", val, ok, err)
	}
	if err := kv.Delete(ctx, "userBooks"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "userBooks"); ok {
		t.Fatal("key should be gone after delete")
	}
}

func TestRedisKeysAreNamespaced(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)
	kv := NewRedis(srv.Addr(), "", "readnook")

	if err := kv.Set(ctx, "customAlbumPhotos", "[]"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !srv.Exists("readnook:customAlbumPhotos") {
		t.Fatal("expected prefixed redis key")
	}
}

func TestRedisGetErrorWhenUnavailable(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)
	kv := NewRedis(srv.Addr(), "", "test")
	srv.Close()

	if _, _, err := kv.Get(ctx, "userBooks"); err == nil {
		t.Fatal("expected error when redis is down")
	}
}
