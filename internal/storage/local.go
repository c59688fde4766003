package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes files under a directory that the HTTP layer serves statically.
type LocalStore struct {
	dir        string
	publicPath string
}

// NewLocalStore returns a store rooted at dir and served under publicPath.
func NewLocalStore(dir, publicPath string) *LocalStore {
	return &LocalStore{dir: dir, publicPath: "/" + strings.Trim(publicPath, "/")}
}

// Dir returns the directory files are written to.
func (s *LocalStore) Dir() string { return s.dir }

// PublicPath returns the URL prefix files are served under.
func (s *LocalStore) PublicPath() string { return s.publicPath }

func (s *LocalStore) Save(_ context.Context, name string, body io.Reader, _ int64, _ string) (string, error) {
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return "", errors.New("invalid file name")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}

	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close upload: %w", err)
	}
	return s.publicPath + "/" + name, nil
}

func (s *LocalStore) Delete(_ context.Context, url string) error {
	if !strings.HasPrefix(url, s.publicPath+"/") {
		return nil
	}
	name := filepath.Base(strings.TrimPrefix(url, s.publicPath+"/"))
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
