package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/gutensearch/core"
)

// Key prefixes for different data types
const (
	bookRecordPrefix    = "bokrec"
	bookSourcePrefix    = "boksrc"
	passageRecordPrefix = "pasrec"
	passageBookPrefix   = "pasbok"
	passageIDSeq        = "pasrecseq"
	storeInfoKey        = "storeinfo"
)

// makeBookKey generates a key for a book record by ID.
func makeBookKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", bookRecordPrefix, id))
}

// makeBookSourceKey generates a key for the source-id index.
// Format: prefix:sourceId
func makeBookSourceKey(sourceId string) []byte {
	return []byte(bookSourcePrefix + ":" + sourceId)
}

// makePassageKey generates a key for a passage record by ID.
func makePassageKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", passageRecordPrefix, id))
}

// makePassageBookKey generates a composite key for the book index.
// Format: prefix:bookID:position:passageID
func makePassageBookKey(bookId core.ID, position int, passageId core.ID) []byte {
	prefix := passageBookPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 24 // 8 bytes each for bookID, position, passageID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(bookId))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(position))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(passageId))
	return buf
}

// makePartialPassageBookKey generates a partial key for per-book passage scans.
// Format: prefix:bookID
func makePartialPassageBookKey(bookId core.ID) []byte {
	prefix := passageBookPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(bookId))
	return buf
}
