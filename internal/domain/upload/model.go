package upload

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/ganot/neosearch/internal/domain/session"
)

// File is a document waiting to be uploaded.
type File interface {
	Name() string
	Open() (io.ReadCloser, error)
}

type pathFile struct {
	path string
}

// PathFile reads a file from local disk when it is uploaded.
func PathFile(path string) File {
	return pathFile{path: path}
}

func (f pathFile) Name() string { return filepath.Base(f.path) }

func (f pathFile) Open() (io.ReadCloser, error) { return os.Open(f.path) }

type bytesFile struct {
	name string
	data []byte
}

// BytesFile wraps in-memory content under the given file name.
func BytesFile(name string, data []byte) File {
	return bytesFile{name: name, data: data}
}

func (f bytesFile) Name() string { return f.name }

func (f bytesFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

// FileError records one file that could not be uploaded.
type FileError struct {
	Name string
	Err  error
}

// Result summarizes one upload batch.
type Result struct {
	SessionID string
	Uploaded  []session.Document
	Failed    []FileError
	// RenamedTo is the title requested for a session whose first document
	// arrived in this batch, or "" when no rename was issued.
	RenamedTo string
}
