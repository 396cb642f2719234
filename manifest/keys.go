package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// AdhocKeyPrefix namespaces identity keys for path-less specs so they can
// never collide with a relative file path.
const AdhocKeyPrefix = "adhoc-"

// KeyForPath derives the identity key for a file-backed spec: the path
// relative to the project root, or the absolute path when the file lives
// outside the tree.
func KeyForPath(projectRoot, path string) string {
	rel, err := filepath.Rel(projectRoot, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// KeyForContent derives the identity key for a path-less ad-hoc spec: a
// short deterministic hash of the literal content, prefixed to mark the
// namespace.
func KeyForContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return AdhocKeyPrefix + hex.EncodeToString(sum[:])[:12]
}

// IsAdhocKey reports whether the key identifies a path-less spec.
func IsAdhocKey(key string) bool {
	return strings.HasPrefix(key, AdhocKeyPrefix)
}

// PathForKey resolves a file-backed key to an absolute path. Ad-hoc keys
// have no backing file and return empty.
func PathForKey(projectRoot, key string) string {
	if IsAdhocKey(key) {
		return ""
	}
	if filepath.IsAbs(key) {
		return key
	}
	return filepath.Join(projectRoot, filepath.FromSlash(key))
}
