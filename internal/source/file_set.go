package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"fortio.org/safecast"
)

// FileSet manages a collection of source files and resolves spans to
// human-readable positions.
type FileSet struct {
	files []File
	index map[string]FileID // path -> id
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0),
		index: make(map[string]FileID),
	}
}

// Load reads a file from disk and registers it.
func (fs *FileSet) Load(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if id, ok := fs.index[abs]; ok {
		return &fs.files[id], nil
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	return fs.add(abs, content, 0)
}

// AddVirtual registers an in-memory file (tests, stdin, FFI input).
func (fs *FileSet) AddVirtual(path string, content []byte) *File {
	f, err := fs.add(path, content, FileVirtual)
	if err != nil {
		// add only fails on a file too large for a uint32 offset;
		// virtual inputs of that size are a caller bug.
		panic(err)
	}
	return f
}

func (fs *FileSet) add(path string, content []byte, flags FileFlags) (*File, error) {
	if _, err := safecast.Conv[uint32](len(content)); err != nil {
		return nil, fmt.Errorf("file %s too large: %w", path, err)
	}

	content, hadBOM := removeBOM(content)
	if hadBOM {
		flags |= FileHadBOM
	}
	content, normalized := normalizeCRLF(content)
	if normalized {
		flags |= FileNormalizedCRLF
	}

	id, err := safecast.Conv[FileID](len(fs.files))
	if err != nil {
		return nil, err
	}
	f := File{
		ID:      id,
		Path:    path,
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	}
	fs.files = append(fs.files, f)
	fs.index[path] = id
	return &fs.files[id], nil
}

// Get returns the file with the given id, or nil.
func (fs *FileSet) Get(id FileID) *File {
	if int(id) >= len(fs.files) {
		return nil
	}
	return &fs.files[id]
}

// Len returns the number of registered files.
func (fs *FileSet) Len() int {
	return len(fs.files)
}

// Position resolves the start of a span to path, line and column.
func (fs *FileSet) Position(sp Span) (string, LineCol) {
	f := fs.Get(sp.File)
	if f == nil {
		return "", LineCol{Line: 1, Col: 1}
	}
	return f.Path, toLineCol(f.LineIdx, sp.Start)
}

// Snippet returns the source text a span covers.
func (fs *FileSet) Snippet(sp Span) string {
	f := fs.Get(sp.File)
	if f == nil || int(sp.End) > len(f.Content) || sp.Start > sp.End {
		return ""
	}
	return string(f.Content[sp.Start:sp.End])
}

// Line returns the full text of the 1-based line number, without the newline.
func (fs *FileSet) Line(id FileID, line uint32) string {
	f := fs.Get(id)
	if f == nil || line == 0 {
		return ""
	}
	start := uint32(0)
	if line >= 2 {
		if int(line-2) >= len(f.LineIdx) {
			return ""
		}
		start = f.LineIdx[line-2] + 1
	}
	end := uint32(len(f.Content))
	if int(line-1) < len(f.LineIdx) {
		end = f.LineIdx[line-1]
	}
	return string(f.Content[start:end])
}
