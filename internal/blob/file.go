package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
)

// File stores each key as one file under a directory. Writes go to a temp
// file in the same directory and are renamed into place, so a reader never
// observes a half-written value.
type File struct {
	dir string
}

var _ Store = (*File)(nil)

// NewFile returns a File store rooted at dir. The directory is created on
// first write.
func NewFile(dir string) *File {
	if dir == "" {
		dir = "./var/hcal"
	}
	return &File{dir: dir}
}

// Dir returns the root directory.
func (f *File) Dir() string {
	return f.dir
}

func (f *File) path(key string) (string, error) {
	if key == "" {
		return "", errors.New("blob: empty key")
	}
	// PathEscape turns separators into %2F, so a key can never leave dir.
	return filepath.Join(f.dir, url.PathEscape(key)+".json"), nil
}

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	p, err := f.path(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("blob: read %s: %w", p, err)
	}
	return string(data), true, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return fmt.Errorf("blob: create dir: %w", err)
	}
	return WriteFileAtomic(p, []byte(value))
}

// WriteFileAtomic writes data to path via temp file + rename with 0600
// permissions.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".hcal-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
