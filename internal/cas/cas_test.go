package cas

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPutRead_RoundTrip(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	content := []byte(`{"packages":[{"name":"android.app"}]}`)
	key := Hash([]byte("methods:perms"))
	if err := Put(key, content); err != nil {
		t.Fatal(err)
	}
	if !Has(key) {
		t.Fatal("expected entry after put")
	}

	got, err := Read(key)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Errorf("round-trip failed: got %q, want %q", got, content)
	}
}

func TestPut_Sharded(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	key := Hash([]byte("sharded"))
	if err := Put(key, []byte("x")); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(Dir(), key[:2], key[2:]+".json.zst")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("expected entry at %s: %v", want, err)
	}
	if _, err := os.Stat(want + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Error("temporary file left behind")
	}
}

func TestHash_DifferentContent(t *testing.T) {
	t.Parallel()
	if Hash([]byte("content A")) == Hash([]byte("content B")) {
		t.Error("different content should produce different hashes")
	}
	if Hash([]byte("same")) != Hash([]byte("same")) {
		t.Error("same content should produce the same hash")
	}
}

func TestPut_Overwrites(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	key := Hash([]byte("inputs"))
	if err := Put(key, []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if err := Put(key, []byte("v2")); err != nil {
		t.Fatal(err)
	}
	got, err := Read(key)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v2" {
		t.Errorf("got %q, want v2", got)
	}
}

func TestRead_MissingHash(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	_, err := Read("0000000000000000000000000000000000000000000000000000000000000000")
	if err == nil {
		t.Fatal("expected error for missing hash")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestInvalidKey(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	if err := Put("ab", []byte("x")); err == nil {
		t.Error("expected error for short key")
	}
	if Has("") {
		t.Error("empty key should never be present")
	}
}

func TestClear(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	hash := Hash([]byte("to be cleared"))
	if err := Put(hash, []byte("to be cleared")); err != nil {
		t.Fatal(err)
	}
	if !Has(hash) {
		t.Fatal("expected entry before clear")
	}
	if err := Clear(); err != nil {
		t.Fatal(err)
	}
	if Has(hash) {
		t.Error("entry survived clear")
	}
}
