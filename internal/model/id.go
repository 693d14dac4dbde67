package model

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Derived identifiers are pure functions of (book id, source-local id).
// Re-running ingestion with the same parsed output produces the same
// identifiers, which is what makes upsert-based ingestion idempotent.

// BookID derives a stable book identifier from a title and the md5 checksum
// of the file contents. The same (title, content) pair always yields the
// same id.
func BookID(title, fileMD5 string) string {
	normalized := strings.ToLower(strings.TrimSpace(title))
	slug := Slugify(normalized)
	sum := md5.Sum([]byte(normalized + fileMD5))
	return slug + "-" + hex.EncodeToString(sum[:])[:8]
}

// Slugify reduces a string to lowercase alphanumerics joined by hyphens.
// Returns "book" for strings with no usable characters.
func Slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	if slug == "" {
		return "book"
	}
	return slug
}

// PageID derives the identifier for a page record.
func PageID(bookID string, pageNumber int) string {
	return fmt.Sprintf("%s-p%d", bookID, pageNumber)
}

// SectionID derives the identifier for a section record.
func SectionID(bookID, sourceID string) string {
	return fmt.Sprintf("%s-sec-%s", bookID, sourceID)
}

// BlockID derives the identifier for a block record.
func BlockID(bookID, sourceID string) string {
	return fmt.Sprintf("%s-blk-%s", bookID, sourceID)
}

// AssetID derives the identifier for an asset record.
func AssetID(bookID, sourceID string) string {
	return fmt.Sprintf("%s-asset-%s", bookID, sourceID)
}

// PageNumberFromID extracts the page number from a derived page id.
// Returns 0 if the id does not follow the {book}-p{number} form.
func PageNumberFromID(pageID string) int {
	idx := strings.LastIndex(pageID, "-p")
	if idx < 0 {
		return 0
	}
	n, err := strconv.Atoi(pageID[idx+2:])
	if err != nil {
		return 0
	}
	return n
}

// SortBlocks orders blocks by page number then reading order, the canonical
// render/search order for a book.
func SortBlocks(blocks []Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		pi, pj := PageNumberFromID(blocks[i].PageID), PageNumberFromID(blocks[j].PageID)
		if pi != pj {
			return pi < pj
		}
		return blocks[i].ReadingOrder < blocks[j].ReadingOrder
	})
}
