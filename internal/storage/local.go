// Package storage persists uploaded bytes on a local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

var (
	// ErrExists is returned when the target name is already taken.
	ErrExists = errors.New("storage: file exists")
	// ErrLimitExceeded is returned when the reader yields more than the limit.
	ErrLimitExceeded = errors.New("storage: size limit exceeded")
)

// Local writes files below Root on an afero filesystem.
type Local struct {
	fs   afero.Fs
	root string
	dirs []string
}

// NewLocal returns a store rooted at root. dirs are the sub-directories
// created by Prepare and checked by Check.
func NewLocal(fs afero.Fs, root string, dirs ...string) *Local {
	return &Local{fs: fs, root: filepath.Clean(root), dirs: dirs}
}

// Root returns the cleaned storage root.
func (l *Local) Root() string {
	return l.root
}

// Prepare creates the root and every managed sub-directory.
func (l *Local) Prepare() error {
	for _, d := range l.dirs {
		if err := l.fs.MkdirAll(filepath.Join(l.root, d), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}
	return nil
}

// Check verifies every managed directory is present.
func (l *Local) Check() error {
	for _, d := range l.dirs {
		p := filepath.Join(l.root, d)
		ok, err := afero.DirExists(l.fs, p)
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		if !ok {
			return fmt.Errorf("missing storage directory %s", p)
		}
	}
	return nil
}

// Write stores r as root/dir/name and returns the stored path and byte count.
// The file is created exclusively. At most limit bytes are accepted; a
// larger body, a read error, or a cancelled ctx leaves nothing behind.
func (l *Local) Write(ctx context.Context, dir, name string, r io.Reader, limit int64) (string, int64, error) {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", 0, fmt.Errorf("invalid file name %q", name)
	}
	target := filepath.Join(l.root, dir, name)

	if err := l.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", 0, fmt.Errorf("create directory: %w", err)
	}

	f, err := l.fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", 0, ErrExists
		}
		return "", 0, fmt.Errorf("create %s: %w", target, err)
	}

	n, err := io.Copy(f, io.LimitReader(&ctxReader{ctx: ctx, r: r}, limit+1))
	cerr := f.Close()
	switch {
	case err != nil:
		err = fmt.Errorf("write %s: %w", target, err)
	case n > limit:
		err = ErrLimitExceeded
	case cerr != nil:
		err = fmt.Errorf("close %s: %w", target, cerr)
	}
	if err != nil {
		_ = l.fs.Remove(target)
		return "", 0, err
	}
	return target, n, nil
}

// ctxReader stops a copy once the request context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
