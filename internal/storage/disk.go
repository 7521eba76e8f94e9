package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	apperrors "pedbook/internal/errors"
)

// URLPrefix is the public path uploaded files are served under.
const URLPrefix = "/uploads/"

// PlaceholderName is served when no upload matches a request.
const PlaceholderName = "placeholder.png"

// imageExtensions maps accepted content types to the extension files are stored with.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var lookupExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Disk stores uploaded images below a root directory, one sub-directory per kind.
type Disk struct {
	root     string
	maxBytes int64
}

// NewDisk creates the root directory if needed.
func NewDisk(root string, maxBytes int64) (*Disk, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Disk{root: abs, maxBytes: maxBytes}, nil
}

// Root returns the absolute upload directory.
func (d *Disk) Root() string {
	return d.root
}

// Save validates and writes an image, returning its public URL.
func (d *Disk) Save(kind, originalName string, r io.Reader) (string, error) {
	if !validSegment(kind) {
		return "", apperrors.ErrInvalidPath
	}

	data, err := io.ReadAll(io.LimitReader(r, d.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > d.maxBytes {
		return "", apperrors.ErrFileTooLarge
	}

	ext, ok := imageExtensions[mimetype.Detect(data).String()]
	if !ok {
		return "", apperrors.ErrUnsupportedImage
	}

	base := filepath.Base(strings.ReplaceAll(originalName, "\\", "/"))
	stem := MakeSlug(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" {
		stem = "image"
	}
	name := fmt.Sprintf("%s-%s%s", stem, uuid.NewString()[:8], ext)

	dir := filepath.Join(d.root, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := writeFile(filepath.Join(dir, name), data); err != nil {
		return "", err
	}
	return URLPrefix + kind + "/" + name, nil
}

// Remove deletes the file behind a URL returned by Save. URLs outside the
// upload prefix and files already gone are ignored.
func (d *Disk) Remove(url string) error {
	if !strings.HasPrefix(url, URLPrefix) {
		return nil
	}
	full, err := d.localPath(strings.TrimPrefix(url, URLPrefix))
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

// Resolve maps a request path below the upload prefix to a file on disk:
// the exact file, else a sibling whose name matches ignoring case, accents
// and extension, else the placeholder image.
func (d *Disk) Resolve(rel string) (string, error) {
	full, err := d.localPath(rel)
	if err != nil {
		return "", err
	}

	if info, err := os.Stat(full); err == nil && info.Mode().IsRegular() {
		return full, nil
	}

	if match := findSimilar(filepath.Dir(full), filepath.Base(full)); match != "" {
		return match, nil
	}

	placeholder := filepath.Join(d.root, PlaceholderName)
	if info, err := os.Stat(placeholder); err == nil && info.Mode().IsRegular() {
		return placeholder, nil
	}
	return "", apperrors.ErrFileNotFound
}

// localPath turns a slash-separated relative path into a path below root.
func (d *Disk) localPath(rel string) (string, error) {
	if rel == "" || strings.Contains(rel, "\\") || path.IsAbs(rel) {
		return "", apperrors.ErrInvalidPath
	}
	for _, segment := range strings.Split(rel, "/") {
		if segment == ".." {
			return "", apperrors.ErrInvalidPath
		}
	}

	full := filepath.Join(d.root, filepath.FromSlash(path.Clean(rel)))
	if full != d.root && !strings.HasPrefix(full, d.root+string(filepath.Separator)) {
		return "", apperrors.ErrInvalidPath
	}
	return full, nil
}

// findSimilar returns the file in dir whose stem matches name's stem after
// folding, preferring the requested extension over other image extensions.
func findSimilar(dir, name string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	wantExt := strings.ToLower(filepath.Ext(name))
	wantStem := MakeSlug(strings.TrimSuffix(name, filepath.Ext(name)))
	if wantStem == "" {
		return ""
	}

	var fallback string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		candidate := entry.Name()
		ext := strings.ToLower(filepath.Ext(candidate))
		if MakeSlug(strings.TrimSuffix(candidate, filepath.Ext(candidate))) != wantStem {
			continue
		}
		if ext == wantExt {
			return filepath.Join(dir, candidate)
		}
		if fallback == "" && lookupExtensions[ext] {
			fallback = filepath.Join(dir, candidate)
		}
	}
	return fallback
}

func validSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, "/\\")
}

func writeFile(name string, data []byte) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		_ = os.Remove(name)
		return fmt.Errorf("write upload: %w", err)
	}
	return f.Close()
}
