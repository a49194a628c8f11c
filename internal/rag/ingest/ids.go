package ingest

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

const idHashLen = 12

// MakeID hashes a canonical document reference into a short stable id.
func MakeID(ref string) string {
	sum := md5.Sum([]byte(ref))
	return hex.EncodeToString(sum[:])[:idHashLen]
}

// CanonicalRef makes a document reference machine independent: root is stripped,
// separators become "/" and no leading slash remains.
func CanonicalRef(path, root string) string {
	ref := filepath.ToSlash(filepath.Clean(path))
	if root != "" {
		r := filepath.ToSlash(filepath.Clean(root))
		if ref == r {
			ref = ""
		} else if strings.HasPrefix(ref, r+"/") {
			ref = ref[len(r)+1:]
		}
	}
	return strings.TrimLeft(ref, "/")
}

func ChunkID(docID string, position int) string {
	return fmt.Sprintf("%s_%d", docID, position)
}
