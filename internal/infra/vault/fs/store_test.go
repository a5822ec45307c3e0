package fs

import (
	"context"
	"io"
	"strings"
	"testing"

	"navisolcore/internal/vault/core"
)

func newVault(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	return store
}

func TestPutGetHeadRoundTrip(t *testing.T) {
	store := newVault(t)
	ctx := context.Background()
	key := "projects/p1/documents/handover.pdf"

	info, err := store.Put(ctx, key, strings.NewReader("pdf bytes"), core.PutOptions{
		ContentType: "application/pdf",
		Metadata:    map[string]string{"actor": "pm"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != key || info.Size != int64(len("pdf bytes")) || info.ETag == "" {
		t.Fatalf("unexpected info: %+v", info)
	}

	got, rc, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(body) != "pdf bytes" {
		t.Fatalf("body = %q", body)
	}
	if got.ContentType != "application/pdf" || got.Metadata["actor"] != "pm" || got.ETag != info.ETag {
		t.Fatalf("metadata lost: %+v", got)
	}

	head, err := store.Head(ctx, key)
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.Size != info.Size || head.ETag != info.ETag {
		t.Fatalf("head mismatch: %+v", head)
	}
}

func TestPutRejectsExistingKey(t *testing.T) {
	store := newVault(t)
	ctx := context.Background()
	key := "projects/p1/documents/final.pdf"
	if _, err := store.Put(ctx, key, strings.NewReader("v1"), core.PutOptions{}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := store.Put(ctx, key, strings.NewReader("v2"), core.PutOptions{}); err == nil {
		t.Fatal("second put on the same key must fail")
	}
	// The original content survives the rejected overwrite.
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	body, _ := io.ReadAll(rc)
	if string(body) != "v1" {
		t.Fatalf("content replaced: %q", body)
	}
}

func TestPutRejectsUnsafeKeys(t *testing.T) {
	store := newVault(t)
	ctx := context.Background()
	for _, key := range []string{"", "  ", "../escape", "a/../../escape", "/absolute"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err == nil {
			t.Errorf("key %q must be rejected", key)
		}
	}
}

func TestListFiltersByPrefix(t *testing.T) {
	store := newVault(t)
	ctx := context.Background()
	keys := []string{
		"projects/p1/documents/a.pdf",
		"projects/p1/documents/b.pdf",
		"projects/p2/documents/c.pdf",
	}
	for _, key := range keys {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "projects/p1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(infos))
	}
	if infos[0].Key != keys[0] || infos[1].Key != keys[1] {
		t.Fatalf("unexpected order: %+v", infos)
	}
	all, err := store.List(ctx, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("full listing: %v %d", err, len(all))
	}
}

func TestDeleteReportsExistence(t *testing.T) {
	store := newVault(t)
	ctx := context.Background()
	key := "projects/p1/documents/tmp.pdf"
	if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	existed, err := store.Delete(ctx, key)
	if err != nil || !existed {
		t.Fatalf("delete: %v existed=%v", err, existed)
	}
	existed, err = store.Delete(ctx, key)
	if err != nil || existed {
		t.Fatalf("second delete: %v existed=%v", err, existed)
	}
	if _, err := store.Head(ctx, key); err == nil {
		t.Fatal("deleted document must not resolve")
	}
}

func TestPresignURLLocal(t *testing.T) {
	store := newVault(t)
	ctx := context.Background()
	url, err := store.PresignURL(ctx, "projects/p1/documents/a.pdf", core.SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.HasPrefix(url, "http://local.vault/") {
		t.Fatalf("url = %q", url)
	}
	if _, err := store.PresignURL(ctx, "k", core.SignedURLOptions{Method: "PUT"}); err == nil {
		t.Fatal("PUT presign must be unsupported")
	}
}
