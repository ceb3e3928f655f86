// Package model loads the permission set and API tree from their CSV inputs.
package model

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jcdickinson/apiperms/internal/apidoc"
	"github.com/jcdickinson/apiperms/internal/cas"
	"github.com/jcdickinson/apiperms/internal/perms"
)

// MissingInputError reports an input path that does not exist.
type MissingInputError struct {
	Arg  int // 1 for the methods file, 2 for the permissions file
	Path string
}

func (e *MissingInputError) Error() string {
	if e.Arg == 1 {
		return "First argument was not a valid filename."
	}
	return "Second argument was not a valid filename."
}

// Source identifies the inputs a model was built from.
type Source struct {
	MethodsPath string `json:"methods_path"`
	PermsPath   string `json:"perms_path"`
	MethodsHash string `json:"methods_hash"`
	PermsHash   string `json:"perms_hash"`
}

// snapshotVersion is bumped whenever parsing or the snapshot layout changes,
// so entries written by an older build are never served.
const snapshotVersion = "apiperms/snapshot/v1"

// Key combines both input hashes and the snapshot format into a single cache key.
func (s Source) Key() string {
	return s.keyFor(snapshotVersion)
}

func (s Source) keyFor(version string) string {
	return cas.Hash([]byte(version + ":" + s.MethodsHash + ":" + s.PermsHash))
}

type Model struct {
	Source      Source
	Packages    []*apidoc.Package
	Permissions *perms.Set
}

type Options struct {
	MethodsPath string
	PermsPath   string
	UseCache    bool
}

// CheckInputs verifies that both input files exist.
func CheckInputs(methodsPath, permsPath string) error {
	for i, p := range []string{methodsPath, permsPath} {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			return &MissingInputError{Arg: i + 1, Path: p}
		} else if err != nil {
			return fmt.Errorf("checking %s: %w", p, err)
		}
	}
	return nil
}

// Load checks both inputs, then reads the permissions and the API docs.
// With UseCache set, a snapshot keyed by the input hashes is reused when the
// inputs have not changed.
func Load(opts Options) (*Model, error) {
	if err := CheckInputs(opts.MethodsPath, opts.PermsPath); err != nil {
		return nil, err
	}

	src, err := describe(opts.MethodsPath, opts.PermsPath)
	if err != nil {
		return nil, err
	}

	if opts.UseCache {
		if m, err := loadSnapshot(src); err == nil {
			slog.Debug("model served from cache", "key", src.Key())
			return m, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("ignoring unreadable model cache", "key", src.Key(), "error", err)
		}
	}

	set, err := perms.ReadPermissions(opts.PermsPath)
	if err != nil {
		return nil, err
	}
	pkgs, err := apidoc.ReadAPIDocs(opts.MethodsPath)
	if err != nil {
		return nil, err
	}

	m := &Model{Source: src, Packages: pkgs, Permissions: set}
	if opts.UseCache {
		if err := saveSnapshot(m); err != nil {
			slog.Warn("failed to cache model", "key", src.Key(), "error", err)
		}
	}
	return m, nil
}

func describe(methodsPath, permsPath string) (Source, error) {
	mh, err := hashFile(methodsPath)
	if err != nil {
		return Source{}, err
	}
	ph, err := hashFile(permsPath)
	if err != nil {
		return Source{}, err
	}
	return Source{MethodsPath: methodsPath, PermsPath: permsPath, MethodsHash: mh, PermsHash: ph}, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// Stats summarises a model.
type Stats struct {
	Packages    int
	Classes     int
	Methods     int
	Permissions int
	ByLevel     map[perms.Level]int
	Groups      int
}

func (m *Model) Stats() Stats {
	p, c, mt := apidoc.Counts(m.Packages)
	return Stats{
		Packages:    p,
		Classes:     c,
		Methods:     mt,
		Permissions: m.Permissions.Len(),
		ByLevel:     m.Permissions.CountByLevel(),
		Groups:      len(m.Permissions.Groups()),
	}
}

type snapshot struct {
	Source      Source             `json:"source"`
	Packages    []*apidoc.Package  `json:"packages"`
	Permissions []perms.Permission `json:"permissions"`
}

// MarshalJSON encodes the model with permissions ordered by name.
func (m *Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{
		Source:      m.Source,
		Packages:    m.Packages,
		Permissions: m.Permissions.Sorted(),
	})
}

func (m *Model) UnmarshalJSON(data []byte) error {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	m.Source = s.Source
	m.Packages = s.Packages
	if m.Packages == nil {
		m.Packages = []*apidoc.Package{}
	}
	m.Permissions = perms.SetOf(s.Permissions)
	return nil
}

func loadSnapshot(src Source) (*Model, error) {
	data, err := cas.Read(src.Key())
	if err != nil {
		return nil, err
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding cached model: %w", err)
	}
	// Paths may differ even when content matches.
	m.Source = src
	return &m, nil
}

func saveSnapshot(m *Model) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}
	return cas.Put(m.Source.Key(), data)
}
