// Package storage persists uploaded file bytes under a single fixed root.
// Files are written under randomized storage names; the client-supplied
// filename is used for display only and never touches a path.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// allowedExtensions is the upload allow-list, matched case-insensitively
// against the client filename's extension.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".zip":  true,
	".txt":  true,
	".docx": true,
	".xlsx": true,
	".csv":  true,
}

// RejectedError describes why an upload was refused. It is safe to show to
// clients.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return e.Reason
}

// Guard validates uploads and owns the upload root directory.
type Guard struct {
	Root     string
	MaxBytes int64
}

func NewGuard(root string, maxBytes int64) *Guard {
	return &Guard{Root: root, MaxBytes: maxBytes}
}

// Accept checks the client filename's extension against the allow-list and
// the size against the configured ceiling. It returns a *RejectedError with
// a client-safe reason on refusal.
func (g *Guard) Accept(filename string, sizeBytes int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return &RejectedError{Reason: fmt.Sprintf("File type %q is not allowed", ext)}
	}
	if sizeBytes > g.MaxBytes {
		return &RejectedError{Reason: fmt.Sprintf("File exceeds the %d MB limit", g.MaxBytes>>20)}
	}
	return nil
}

// Persist writes src under the upload root as storageName, creating the root
// if needed. storageName must be a bare generated name; anything that could
// escape the root is refused.
func (g *Guard) Persist(src io.Reader, storageName string) (string, error) {
	if err := validStorageName(storageName); err != nil {
		return "", err
	}
	if err := os.MkdirAll(g.Root, 0o755); err != nil {
		return "", err
	}

	dstPath := filepath.Join(g.Root, storageName)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(dstPath)
		return "", err
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dstPath)
		return "", err
	}
	return dstPath, nil
}

// Open returns the stored file and its size for streaming to a client.
func (g *Guard) Open(storageName string) (*os.File, int64, error) {
	if err := validStorageName(storageName); err != nil {
		return nil, 0, err
	}
	f, err := os.Open(filepath.Join(g.Root, storageName))
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

// Remove deletes a stored file. Removing a name that is already gone is not
// an error.
func (g *Guard) Remove(storageName string) error {
	if err := validStorageName(storageName); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(g.Root, storageName))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// validStorageName rejects anything other than a single bare path element.
// Storage names are generated server-side, so a violation here means a bug
// or a forged value, never a legitimate upload.
func validStorageName(name string) error {
	if name == "" ||
		strings.ContainsAny(name, `/\`) ||
		strings.Contains(name, "..") ||
		name != filepath.Base(name) {
		return fmt.Errorf("invalid storage name %q", name)
	}
	return nil
}
