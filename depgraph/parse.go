package depgraph

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// metadataBlock is the leading `---` fenced block a spec file may open with.
type metadataBlock struct {
	Depends []string `yaml:"depends"`
}

// ParseDependencies reads the optional leading metadata block of a spec
// document and returns the declared dependency names. Both forms are
// accepted:
//
//	---
//	depends: [auth, db]
//	---
//
// and
//
//	---
//	depends:
//	  - auth
//	  - db
//	---
//
// A document without a metadata block, or a block without a depends key,
// yields no dependencies.
func ParseDependencies(content string) []string {
	meta, ok := splitMetadata([]byte(content))
	if !ok {
		return nil
	}

	var block metadataBlock
	if err := yaml.Unmarshal(meta, &block); err != nil {
		// A malformed block is treated the same as no block: the spec
		// simply has no declared dependencies.
		return nil
	}
	return block.Depends
}

// splitMetadata extracts the raw bytes between the leading `---` fences.
func splitMetadata(content []byte) ([]byte, bool) {
	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return nil, false
	}
	rest := normalized[4:]
	if idx := bytes.Index(rest, []byte("\n---\n")); idx >= 0 {
		return rest[:idx], true
	}
	// A fence at EOF without a trailing newline still closes the block.
	if bytes.HasSuffix(rest, []byte("\n---")) {
		return rest[:len(rest)-4], true
	}
	return nil, false
}
