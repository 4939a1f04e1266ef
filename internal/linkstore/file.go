package linkstore

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pkglink-dev/pkglink/internal/linkerr"
	"github.com/pkglink-dev/pkglink/internal/platform"
	"github.com/pkglink-dev/pkglink/internal/schema"
)

//go:embed schema/links.schema.json
var schemaBytes []byte

var storeSchema = schema.New("links.schema.json", schemaBytes)

// Backend loads and saves the whole store document.
type Backend interface {
	Load() (*Document, error)
	Save(doc *Document) error
}

// FileBackend keeps the document in a YAML file.
type FileBackend struct {
	Path string
}

// NewFileBackend returns a backend for the YAML file at path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

// Load reads the store file. A missing or empty file is an empty store; a
// file that fails to parse or validate is a Corrupt error.
func (b *FileBackend) Load() (*Document, error) {
	data, err := os.ReadFile(b.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Document{Version: CurrentVersion}, nil
		}
		return nil, linkerr.FromFS("", b.Path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &Document{Version: CurrentVersion}, nil
	}

	result, err := storeSchema.ValidateYAML(data)
	if err != nil {
		return nil, linkerr.New(linkerr.KindCorrupt, "", b.Path, err)
	}
	if !result.Valid {
		return nil, linkerr.New(linkerr.KindCorrupt, "", b.Path, errors.New(result.Summary()))
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, linkerr.New(linkerr.KindCorrupt, "", b.Path, err)
	}
	if doc.Version == 0 {
		doc.Version = CurrentVersion
	}
	if err := checkDocument(&doc); err != nil {
		return nil, linkerr.New(linkerr.KindCorrupt, "", b.Path, err)
	}
	return &doc, nil
}

// Save writes the document atomically: temp file in the same directory,
// fsync, rename over the target, then fsync the directory.
func (b *FileBackend) Save(doc *Document) error {
	dir := filepath.Dir(b.Path)
	if err := os.MkdirAll(dir, platform.DirPerm); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling link store: %w", err)
	}

	f, err := os.CreateTemp(dir, ".links-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing link store: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("syncing link store: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing link store: %w", err)
	}
	if err := platform.Chmod(tmp, platform.FilePerm); err != nil {
		return fmt.Errorf("setting store permissions: %w", err)
	}

	if err := os.Rename(tmp, b.Path); err != nil {
		return fmt.Errorf("replacing link store: %w", err)
	}

	if dirf, err := os.Open(dir); err == nil {
		_ = dirf.Sync()
		_ = dirf.Close()
	}
	return nil
}

// checkDocument enforces what the schema cannot: unique names, valid names,
// absolute source and project paths.
func checkDocument(doc *Document) error {
	seen := make(map[string]bool, len(doc.Links))
	for i := range doc.Links {
		r := &doc.Links[i]
		if err := ValidateName(r.Name); err != nil {
			return err
		}
		if seen[r.Name] {
			return fmt.Errorf("duplicate record for %q", r.Name)
		}
		seen[r.Name] = true
		if !filepath.IsAbs(r.SourcePath) {
			return fmt.Errorf("record %q: source path %q is not absolute", r.Name, r.SourcePath)
		}
		r.SourcePath = filepath.Clean(r.SourcePath)
		for j, p := range r.LinkedProjects {
			if !filepath.IsAbs(p) {
				return fmt.Errorf("record %q: project path %q is not absolute", r.Name, p)
			}
			r.LinkedProjects[j] = filepath.Clean(p)
		}
	}
	return nil
}
