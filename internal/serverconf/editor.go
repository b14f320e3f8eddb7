package serverconf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"

	"wgward/internal/logger"
)

const DefaultFileMode os.FileMode = 0600

// Editor applies whole-document edits to the server config file. Every mutation
// reads the full file, edits it in memory and atomically replaces it.
// Callers are responsible for serializing mutations.
type Editor struct {
	path string
	perm os.FileMode
}

func NewEditor(path string) *Editor {
	return &Editor{path: path, perm: DefaultFileMode}
}

// ConfigPath returns <dir>/<nic>.conf.
func ConfigPath(dir, interfaceName string) string {
	return filepath.Join(dir, interfaceName+".conf")
}

func (e *Editor) Path() string {
	return e.path
}

func (e *Editor) Read() (string, error) {
	content, err := os.ReadFile(e.path)

	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrDocumentNotFound, e.path)
		}

		return "", fmt.Errorf("read %s: %w", e.path, err)
	}

	return string(content), nil
}

func (e *Editor) Load() (*Document, error) {
	content, err := e.Read()

	if err != nil {
		return nil, err
	}

	return Parse(content), nil
}

// loadOrEmpty treats a missing document as one with no sections.
func (e *Editor) loadOrEmpty() (*Document, error) {
	doc, err := e.Load()

	if errors.Is(err, ErrDocumentNotFound) {
		return &Document{}, nil
	}

	return doc, err
}

func (e *Editor) Save(doc *Document) error {
	if err := atomicwriter.WriteFile(e.path, []byte(doc.Render()), e.perm); err != nil {
		return fmt.Errorf("write %s: %w", e.path, err)
	}

	return nil
}

// Edit loads the document (empty when missing), applies fn and saves the result
// unless fn reports no change or fails.
func (e *Editor) Edit(fn func(doc *Document) (bool, error)) error {
	doc, err := e.loadOrEmpty()

	if err != nil {
		return err
	}

	changed, err := fn(doc)

	if err != nil || !changed {
		return err
	}

	return e.Save(doc)
}

func (e *Editor) UpsertPeerSection(name string, section Section) error {
	logger.Debug("Upserting peer section %s in %s", name, e.path)

	return e.Edit(func(doc *Document) (bool, error) {
		doc.Upsert(name, section)

		return true, nil
	})
}

// RemovePeerSection reports whether a section was present. The file is not
// rewritten when nothing changed.
func (e *Editor) RemovePeerSection(name string) (bool, error) {
	removed := false

	err := e.Edit(func(doc *Document) (bool, error) {
		removed = doc.Remove(name)

		return removed, nil
	})

	if err != nil {
		return false, err
	}

	if removed {
		logger.Debug("Removed peer section %s from %s", name, e.path)
	}

	return removed, nil
}

func (e *Editor) FindPeerSection(name string) (*Section, error) {
	doc, err := e.loadOrEmpty()

	if err != nil {
		return nil, err
	}

	return doc.Find(name)
}

func (e *Editor) ListPeerNames() ([]string, error) {
	doc, err := e.loadOrEmpty()

	if err != nil {
		return nil, err
	}

	return doc.PeerNames(), nil
}
