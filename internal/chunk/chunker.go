// Package chunk splits oversized content into ordered, overlapping segments
// so it can be stored as multiple memory records. Splits prefer semantic
// boundaries (paragraph, line, sentence, word) near the size target and fall
// back to exact cuts. All offsets are byte offsets into the original string.
package chunk

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Split methods recorded per chunk. A chunk's method describes how its end
// position was chosen.
const (
	MethodNone     = "none"
	MethodBoundary = "boundary"
	MethodExact    = "exact"
	MethodForced   = "forced"
)

// DefaultBoundaries orders split points from strongest structural break down
// to plain whitespace.
var DefaultBoundaries = []string{"\n\n\n", "\n\n", "\n", ". ", "! ", "? ", "; ", ", ", " "}

// DefaultSeparator joins chunk contents when reassembling for display.
const DefaultSeparator = "\n\n---\n\n"

// maxIterations stops the split loop on pathological inputs. The remainder
// becomes one final chunk marked MethodForced.
const maxIterations = 1000

// Options control chunk sizing. Zero values take the package defaults.
type Options struct {
	MaxChunkSize int
	OverlapSize  int
	MinChunkSize int
	Boundaries   []string
}

// DefaultOptions returns the standard sizing for memory records.
func DefaultOptions() Options {
	return Options{
		MaxChunkSize: 8000,
		OverlapSize:  200,
		MinChunkSize: 500,
	}
}

// normalized fills defaults and clamps the fields so the split loop always
// makes progress and chunks always cover the input.
func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.MaxChunkSize <= 0 {
		o.MaxChunkSize = def.MaxChunkSize
	}
	if o.MinChunkSize <= 0 {
		o.MinChunkSize = def.MinChunkSize
	}
	if o.MinChunkSize > o.MaxChunkSize {
		o.MinChunkSize = o.MaxChunkSize
	}
	if o.OverlapSize < 0 {
		o.OverlapSize = 0
	}
	if o.OverlapSize > o.MaxChunkSize-o.MinChunkSize {
		o.OverlapSize = o.MaxChunkSize - o.MinChunkSize
	}
	if len(o.Boundaries) == 0 {
		o.Boundaries = DefaultBoundaries
	}
	return o
}

// Chunk is one segment of the original content.
type Chunk struct {
	Index       int    `json:"chunkIndex"`
	Total       int    `json:"totalChunks"`
	Content     string `json:"-"`
	Start       int    `json:"startOffset"`
	End         int    `json:"endOffset"`
	SplitMethod string `json:"splitMethod"`
}

// TitleSuffix is appended to the base title of each created record.
func (c Chunk) TitleSuffix() string {
	return fmt.Sprintf(" (Part %d of %d)", c.Index, c.Total)
}

// IsContinuation reports whether the chunk continues earlier content.
func (c Chunk) IsContinuation() bool {
	return c.Index > 1
}

// NeedsChunking reports whether content exceeds the maximum chunk size.
// Content exactly at the maximum fits in one record.
func NeedsChunking(content string, opts Options) bool {
	return len(content) > opts.normalized().MaxChunkSize
}

// EstimateChunkCount predicts how many chunks Split will produce, assuming
// boundary snapping costs up to ten percent of each chunk.
func EstimateChunkCount(content string, opts Options) int {
	opts = opts.normalized()
	if len(content) <= opts.MaxChunkSize {
		return 1
	}
	effective := float64(opts.MaxChunkSize) * 0.9
	return int(math.Ceil(float64(len(content)) / effective))
}

// Split cuts content into ordered chunks around MaxChunkSize bytes each. A
// cut lands on the strongest boundary within OverlapSize of the size target
// that still leaves the chunk at least MinChunkSize long, or exactly at the
// target when no boundary qualifies, so a boundary cut may overshoot the
// target by up to OverlapSize. Consecutive chunks overlap by up to
// OverlapSize bytes of context.
func Split(content string, opts Options) []Chunk {
	opts = opts.normalized()

	if len(content) <= opts.MaxChunkSize {
		return []Chunk{{
			Index:       1,
			Total:       1,
			Content:     content,
			Start:       0,
			End:         len(content),
			SplitMethod: MethodNone,
		}}
	}

	var chunks []Chunk
	start := 0
	for iter := 0; start < len(content); iter++ {
		if iter >= maxIterations {
			chunks = append(chunks, Chunk{
				Content:     content[start:],
				Start:       start,
				End:         len(content),
				SplitMethod: MethodForced,
			})
			break
		}

		if len(content)-start <= opts.MaxChunkSize {
			chunks = append(chunks, Chunk{
				Content:     content[start:],
				Start:       start,
				End:         len(content),
				SplitMethod: MethodNone,
			})
			break
		}

		targetEnd := start + opts.MaxChunkSize
		end := boundaryEnd(content, start, targetEnd, opts)
		method := MethodBoundary
		if end < 0 {
			end = targetEnd
			method = MethodExact
		}
		chunks = append(chunks, Chunk{
			Content:     content[start:end],
			Start:       start,
			End:         end,
			SplitMethod: method,
		})

		next := end - opts.OverlapSize
		if floor := start + opts.MinChunkSize; floor > next {
			next = floor
		}
		start = next
	}

	for i := range chunks {
		chunks[i].Index = i + 1
		chunks[i].Total = len(chunks)
	}
	return chunks
}

// boundaryEnd searches the window [targetEnd-overlap, targetEnd+overlap] for
// the rightmost occurrence of the strongest boundary that keeps the chunk at
// least MinChunkSize long. The returned end includes the boundary itself, so
// separators stay with the earlier chunk. Returns -1 when no boundary
// qualifies.
func boundaryEnd(content string, start, targetEnd int, opts Options) int {
	windowStart := targetEnd - opts.OverlapSize
	windowEnd := targetEnd + opts.OverlapSize
	if windowEnd > len(content) {
		windowEnd = len(content)
	}

	region := content[start:windowEnd]
	for _, boundary := range opts.Boundaries {
		idx := strings.LastIndex(region, boundary)
		if idx < 0 {
			continue
		}
		end := start + idx + len(boundary)
		if end < windowStart || end-start < opts.MinChunkSize {
			continue
		}
		return end
	}
	return -1
}

// Reassemble joins chunk contents in index order with the given separator,
// defaulting to DefaultSeparator when empty.
func Reassemble(chunks []Chunk, separator string) string {
	if separator == "" {
		separator = DefaultSeparator
	}
	ordered := make([]Chunk, len(chunks))
	copy(ordered, chunks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	parts := make([]string, len(ordered))
	for i, c := range ordered {
		parts[i] = c.Content
	}
	return strings.Join(parts, separator)
}
