// Package upload holds the rules for accepted uploads: which extensions each
// endpoint takes, how identifiers are generated, and how bytes reach storage.
package upload

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// Kind selects an allowlist and a storage directory.
type Kind string

const (
	KindImage Kind = "image"
	KindFile  Kind = "file"
)

// Allowlists are kept sorted so they can be reported as-is.
var (
	imageExtensions = []string{".jpeg", ".jpg", ".png", ".webp"}
	fileExtensions  = []string{".docx", ".pdf", ".txt", ".xlsx"}
)

// Kinds lists every upload kind in route order.
func Kinds() []Kind {
	return []Kind{KindImage, KindFile}
}

// ParseKind accepts "image" or "file".
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown upload kind %q", s)
	}
	return k, nil
}

func (k Kind) Valid() bool {
	return k == KindImage || k == KindFile
}

// Extensions returns a copy of the kind's allowlist.
func (k Kind) Extensions() []string {
	switch k {
	case KindImage:
		return slices.Clone(imageExtensions)
	case KindFile:
		return slices.Clone(fileExtensions)
	default:
		return nil
	}
}

// Dir is the storage sub-directory for the kind.
func (k Kind) Dir() string {
	switch k {
	case KindImage:
		return "images"
	case KindFile:
		return "files"
	default:
		return ""
	}
}

// Allows reports whether ext (with leading dot, any case) is on the allowlist.
func (k Kind) Allows(ext string) bool {
	ext = strings.ToLower(ext)
	if ext == "" {
		return false
	}
	return slices.Contains(k.Extensions(), ext)
}

// label is the noun used in rejection messages.
func (k Kind) label() string {
	if k == KindImage {
		return "image"
	}
	return "file"
}

// Extension returns the lowercased suffix of filename, including the dot.
func Extension(filename string) string {
	// Clients on Windows may send full paths.
	filename = filename[strings.LastIndexAny(filename, `/\`)+1:]
	return strings.ToLower(filepath.Ext(filename))
}
