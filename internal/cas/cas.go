package cas

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jcdickinson/apiperms/internal/config"
	"github.com/klauspost/compress/zstd"
)

// Dir returns the CAS directory path.
func Dir() string {
	return config.CASDir()
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// path returns the sharded file path for a key: cas/<first2>/<rest>.json.zst
func path(key string) string {
	return filepath.Join(Dir(), key[:2], key[2:]+".json.zst")
}

func validKey(key string) error {
	if len(key) < 3 {
		return fmt.Errorf("invalid CAS key %q", key)
	}
	return nil
}

// Put stores data under key, replacing any previous content.
func Put(key string, data []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	p := path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("creating CAS directory: %w", err)
	}

	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("compressing CAS content: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing zstd writer: %w", err)
	}

	// Readers never see a partial entry.
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing CAS file: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming CAS file: %w", err)
	}
	return nil
}

// Read retrieves content from the CAS by key.
func Read(key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	f, err := os.Open(path(key))
	if err != nil {
		return nil, fmt.Errorf("reading CAS file %s: %w", key, err)
	}
	defer f.Close()

	r, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompressing CAS file %s: %w", key, err)
	}
	return data, nil
}

// Has reports whether key is present.
func Has(key string) bool {
	if validKey(key) != nil {
		return false
	}
	_, err := os.Stat(path(key))
	return err == nil
}

// Clear removes every stored entry.
func Clear() error {
	if err := os.RemoveAll(Dir()); err != nil {
		return fmt.Errorf("clearing CAS: %w", err)
	}
	return nil
}
