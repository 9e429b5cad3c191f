package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore saves receipts under a directory on disk. URLs are plain paths
// served by the app; there is no real signing in development.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocal creates a filesystem store rooted at dir (default uploads/receipts).
func NewLocal(dir string) (*LocalStore, error) {
	if dir == "" {
		dir = filepath.Join("uploads", "receipts")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	baseURL := os.Getenv("BLOB_LOCAL_BASE_URL")
	if baseURL == "" {
		baseURL = "/uploads/receipts"
	}
	return &LocalStore{root: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Root returns the directory receipts are stored under.
func (l *LocalStore) Root() string { return l.root }

func (l *LocalStore) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	if err := validKey(key); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(l.root, key))
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return err
	}
	return nil
}

func (l *LocalStore) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	if _, err := os.Stat(filepath.Join(l.root, key)); err != nil {
		return "", err
	}
	return l.baseURL + "/" + key, nil
}

func (l *LocalStore) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(l.root, key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func validKey(key string) error {
	if key == "" || strings.Contains(key, "..") || strings.ContainsAny(key, "/\\") {
		return fmt.Errorf("invalid object key %q", key)
	}
	return nil
}
