package history

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// HashProject creates the key prefix for a project's records. Descriptor
// paths are compared case-insensitively, so they are hashed lower-cased.
func HashProject(descriptorPath string) string {
	if abs, err := filepath.Abs(descriptorPath); err == nil {
		descriptorPath = abs
	}

	h := sha256.New()
	h.Write([]byte(strings.ToLower(filepath.Clean(descriptorPath))))

	return hex.EncodeToString(h.Sum(nil))[:16]
}
