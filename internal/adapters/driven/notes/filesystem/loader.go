// Package filesystem loads plain-text notes from a directory and watches
// it for changes.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/edurag/internal/core/domain"
	"github.com/custodia-labs/edurag/internal/core/ports/driven"
	"github.com/custodia-labs/edurag/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.NoteSource = (*Loader)(nil)

// NoteExt is the extension of files treated as notes.
const NoteExt = ".txt"

// Loader reads every *.txt file directly inside a directory.
type Loader struct {
	dir string
}

// NewLoader creates a loader for dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Location returns the notes directory.
func (l *Loader) Location() string {
	return l.dir
}

// Load reads the notes in lexical file-name order. Line endings are
// normalised to \n and invalid UTF-8 is replaced. Files that are blank
// after trimming are skipped. A missing directory, or one with no usable
// notes, yields domain.ErrNoNotes.
func (l *Loader) Load(ctx context.Context) ([]domain.Document, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s does not exist", domain.ErrNoNotes, l.dir)
		}
		return nil, fmt.Errorf("read notes dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsNote(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	docs := make([]domain.Document, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(l.dir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read note %s: %w", name, err)
		}

		text := normalise(string(raw))
		if strings.TrimSpace(text) == "" {
			logger.Debug("skipping empty note %s", name)
			continue
		}

		doc := domain.Document{SourceID: name, Text: text}
		if info, err := os.Stat(path); err == nil {
			doc.ModifiedAt = info.ModTime().UTC()
		}
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no %s files with content in %s", domain.ErrNoNotes, NoteExt, l.dir)
	}
	logger.Debug("loaded %d notes from %s", len(docs), l.dir)
	return docs, nil
}

// IsNote reports whether a file name is a note. Hidden files are ignored.
func IsNote(name string) bool {
	base := filepath.Base(name)
	return !strings.HasPrefix(base, ".") && strings.EqualFold(filepath.Ext(base), NoteExt)
}

func normalise(s string) string {
	s = strings.ToValidUTF8(s, "�")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
