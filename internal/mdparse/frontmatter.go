package mdparse

import (
	"bytes"

	"github.com/adrg/frontmatter"
)

// splitFrontMatter separates a leading front matter block from the
// markdown body. It returns the decoded metadata and the byte offset at
// which the body starts. Input without a well-formed front matter block
// yields a nil map and offset 0.
func splitFrontMatter(src []byte) (map[string]any, int) {
	var meta map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(src), &meta)
	if err != nil || len(meta) == 0 {
		return nil, 0
	}
	if !bytes.HasSuffix(src, body) {
		return nil, 0
	}
	return meta, len(src) - len(body)
}
