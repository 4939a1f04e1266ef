package linkstore

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"github.com/pkglink-dev/pkglink/internal/linkerr"
)

// Store is the in-memory view of the link records backed by a Backend.
// It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	doc     *Document
	logger  *slog.Logger
}

// Open loads the store from backend. A corrupt store is returned as an error
// and never replaced.
func Open(backend Backend, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	doc, err := backend.Load()
	if err != nil {
		return nil, err
	}
	return &Store{backend: backend, doc: doc, logger: logger}, nil
}

// OpenFile opens the YAML store at path.
func OpenFile(path string, logger *slog.Logger) (*Store, error) {
	return Open(NewFileBackend(path), logger)
}

// NewMemory returns an empty store that is never written to disk.
func NewMemory() *Store {
	s, _ := Open(&MemoryBackend{}, nil)
	return s
}

// mutate applies fn to a copy of the document, persists the copy and only
// then swaps it in. On any error the visible state is unchanged.
func (s *Store) mutate(op string, fn func(doc *Document) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.clone()
	changed, err := fn(next)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	next.Version = CurrentVersion
	if err := s.backend.Save(next); err != nil {
		s.logger.Warn("link store save failed", "op", op, "error", err)
		return fmt.Errorf("persisting link store: %w", err)
	}
	s.doc = next
	s.logger.Debug("link store saved", "op", op, "records", len(next.Links))
	return nil
}

// Add appends a new record. sourcePath must be absolute; its existence is
// the caller's concern.
func (s *Store) Add(name, sourcePath, version string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if !filepath.IsAbs(sourcePath) {
		return fmt.Errorf("source path %q must be absolute", sourcePath)
	}
	return s.mutate("add", func(doc *Document) (bool, error) {
		if doc.index(name) >= 0 {
			return false, linkerr.New(linkerr.KindDuplicateName, name, "", nil)
		}
		doc.Links = append(doc.Links, LinkRecord{
			Name:            name,
			SourcePath:      filepath.Clean(sourcePath),
			DeclaredVersion: version,
		})
		return true, nil
	})
}

// Remove deletes the record for name.
func (s *Store) Remove(name string) error {
	return s.mutate("remove", func(doc *Document) (bool, error) {
		i := doc.index(name)
		if i < 0 {
			return false, linkerr.PackageNotFound(name, doc.names())
		}
		doc.Links = slices.Delete(doc.Links, i, i+1)
		return true, nil
	})
}

// Get returns a copy of the record for name.
func (s *Store) Get(name string) (LinkRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.doc.index(name)
	if i < 0 {
		return LinkRecord{}, false
	}
	return s.doc.Links[i].Clone(), true
}

// Lookup is Get with a NotFound error that suggests close names.
func (s *Store) Lookup(name string) (LinkRecord, error) {
	if r, ok := s.Get(name); ok {
		return r, nil
	}
	return LinkRecord{}, linkerr.PackageNotFound(name, s.Names())
}

// List returns copies of all records in insertion order.
func (s *Store) List() []LinkRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LinkRecord, len(s.doc.Links))
	for i, r := range s.doc.Links {
		out[i] = r.Clone()
	}
	return out
}

// Names returns all record names in insertion order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.names()
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.doc.Links)
}

// RecordLink adds project to the record's linked projects. project must be
// absolute. Recording an existing entry is a no-op and does not write.
func (s *Store) RecordLink(name, project string) error {
	if !filepath.IsAbs(project) {
		return fmt.Errorf("project path %q must be absolute", project)
	}
	project = filepath.Clean(project)
	return s.mutate("record-link", func(doc *Document) (bool, error) {
		i := doc.index(name)
		if i < 0 {
			return false, linkerr.PackageNotFound(name, doc.names())
		}
		if slices.Contains(doc.Links[i].LinkedProjects, project) {
			return false, nil
		}
		doc.Links[i].LinkedProjects = append(doc.Links[i].LinkedProjects, project)
		return true, nil
	})
}

// RecordUnlink removes project from the record's linked projects. Removing
// an absent entry is a no-op.
func (s *Store) RecordUnlink(name, project string) error {
	return s.RecordUnlinkMany(name, []string{project})
}

// RecordUnlinkMany removes several projects from one record in a single save.
func (s *Store) RecordUnlinkMany(name string, projects []string) error {
	drop := make(map[string]bool, len(projects))
	for _, p := range projects {
		drop[filepath.Clean(p)] = true
	}
	return s.mutate("record-unlink", func(doc *Document) (bool, error) {
		i := doc.index(name)
		if i < 0 {
			return false, linkerr.PackageNotFound(name, doc.names())
		}
		before := len(doc.Links[i].LinkedProjects)
		doc.Links[i].LinkedProjects = slices.DeleteFunc(doc.Links[i].LinkedProjects,
			func(p string) bool { return drop[p] })
		if len(doc.Links[i].LinkedProjects) == 0 {
			doc.Links[i].LinkedProjects = nil
		}
		return len(doc.Links[i].LinkedProjects) != before, nil
	})
}

// UpdateVersion sets the declared version of a record.
func (s *Store) UpdateVersion(name, version string) error {
	return s.mutate("update-version", func(doc *Document) (bool, error) {
		i := doc.index(name)
		if i < 0 {
			return false, linkerr.PackageNotFound(name, doc.names())
		}
		if doc.Links[i].DeclaredVersion == version {
			return false, nil
		}
		doc.Links[i].DeclaredVersion = version
		return true, nil
	})
}

func (d *Document) names() []string {
	names := make([]string, len(d.Links))
	for i, r := range d.Links {
		names[i] = r.Name
	}
	return names
}
