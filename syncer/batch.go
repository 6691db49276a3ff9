package syncer

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/minios-linux/locsync/document"
	"github.com/minios-linux/locsync/translate"
)

// DefaultBatchSize is the number of leaves sent per translation request.
const DefaultBatchSize = 20

// Batch is a contiguous run of pending leaves translated in one request.
type Batch struct {
	// Index is the 0-based position of the batch in the run.
	Index  int
	Leaves []document.Leaf
}

// MakeBatches splits pending leaves into contiguous batches of at most
// size leaves, preserving order. A non-positive size uses DefaultBatchSize.
func MakeBatches(pending []document.Leaf, size int) []Batch {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var batches []Batch
	for start := 0; start < len(pending); start += size {
		end := min(start+size, len(pending))
		batches = append(batches, Batch{
			Index:  len(batches),
			Leaves: pending[start:end],
		})
	}
	return batches
}

// SafeKey derives the wire key for the leaf at batch-local index idx:
// "idx_<idx>_<hint>", where hint is the last two path segments stripped
// of anything but letters and digits, joined with "_". The index makes
// keys unique within a batch; keys mean nothing outside it.
func SafeKey(idx int, path []string) string {
	tail := path
	if len(tail) > 2 {
		tail = tail[len(tail)-2:]
	}
	hints := make([]string, 0, len(tail))
	for _, seg := range tail {
		hints = append(hints, alnumOnly(seg))
	}
	return "idx_" + strconv.Itoa(idx) + "_" + strings.Join(hints, "_")
}

func alnumOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return -1
	}, s)
}

// Keys returns the safe key of every leaf, in batch order.
func (b Batch) Keys() []string {
	keys := make([]string, len(b.Leaves))
	for i, l := range b.Leaves {
		keys[i] = SafeKey(i, l.Path)
	}
	return keys
}

// Entries builds the outbound key -> source text mapping in batch order.
func (b Batch) Entries() []translate.Entry {
	keys := b.Keys()
	entries := make([]translate.Entry, len(b.Leaves))
	for i, l := range b.Leaves {
		entries[i] = translate.Entry{Key: keys[i], Text: l.Text()}
	}
	return entries
}
