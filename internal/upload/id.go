package upload

import (
	"strings"

	"github.com/google/uuid"
)

const idLength = 12

// NewID returns a short random identifier: 12 hex characters of a v4 UUID.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:idLength]
}
