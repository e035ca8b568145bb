// Package blob stores uploaded post images on local disk and maps them to
// URLs served from the static /uploads route.
package blob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const urlPrefix = "/uploads/images"

// DiskStore writes uploaded images under root/images/<postID>/<filename>.
type DiskStore struct {
	root string
}

// NewDiskStore creates the upload root if needed.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(filepath.Join(root, "images"), 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Save writes the image and returns the public URL path it will be served
// from. Path separators in the inputs are stripped so uploads cannot escape
// the store root.
func (d *DiskStore) Save(postID, filename string, r io.Reader) (string, error) {
	postID = filepath.Base(filepath.Clean(postID))
	filename = filepath.Base(filepath.Clean(filename))
	if postID == "." || postID == string(filepath.Separator) || filename == "." || filename == string(filepath.Separator) {
		return "", fmt.Errorf("invalid upload name %q/%q", postID, filename)
	}

	dir := filepath.Join(d.root, "images", postID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating image dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return "", fmt.Errorf("creating image file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}

	return strings.Join([]string{urlPrefix, postID, filename}, "/"), nil
}

// Remove deletes all images stored for a post. Missing directories are not
// an error so post deletion stays idempotent.
func (d *DiskStore) Remove(postID string) error {
	postID = filepath.Base(filepath.Clean(postID))
	if postID == "." || postID == string(filepath.Separator) {
		return nil
	}
	return os.RemoveAll(filepath.Join(d.root, "images", postID))
}

// Root returns the directory static file serving should be mounted on.
func (d *DiskStore) Root() string {
	return d.root
}
