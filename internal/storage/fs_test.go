package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
)

func TestFSStore_RoundTrip(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	key := CertificateKey(3, 9, "AB12CD34", "txt")
	if key != "certificates/3/9/AB12CD34.txt" {
		t.Fatalf("unexpected key %q", key)
	}
	if _, err := s.Put(ctx, key, strings.NewReader("hello")); err != nil {
		t.Fatal(err)
	}
	rc, err := s.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "hello" {
		t.Fatalf("got %q", b)
	}
	u, err := s.URL(key)
	if err != nil || !strings.HasPrefix(u, "file://") {
		t.Fatalf("url %q (%v)", u, err)
	}
}

func TestFSStore_RejectsEscapingKeys(t *testing.T) {
	s, _ := NewFSStore(t.TempDir())
	ctx := context.Background()
	for _, k := range []string{"", "../etc/passwd", "a/../../b"} {
		if _, err := s.Put(ctx, k, strings.NewReader("x")); !apperr.Is(err, apperr.KindInvalid) {
			t.Fatalf("key %q: want Invalid, got %v", k, err)
		}
	}
	if _, err := s.Get(ctx, "missing/file"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("missing: want NotFound, got %v", err)
	}
}
