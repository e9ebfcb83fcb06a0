package chunk

import "fmt"

// CreatePayload is one memory-creation request derived from a chunk. The
// tools layer maps it onto the upstream create call.
type CreatePayload struct {
	Title    string
	Content  string
	Type     string
	Tags     []string
	Metadata map[string]interface{}
}

// BuildCreates splits content and derives one creation payload per chunk.
// Chunked payloads get a "Part i of N" title suffix, chunk tags, and a
// chunking metadata block alongside the caller's metadata. Content that fits
// in one chunk produces a single unmodified payload.
func BuildCreates(baseTitle, content, memoryType string, tags []string, metadata map[string]interface{}, opts Options) []CreatePayload {
	chunks := Split(content, opts)

	payloads := make([]CreatePayload, 0, len(chunks))
	for _, c := range chunks {
		p := CreatePayload{
			Title:   baseTitle,
			Content: c.Content,
			Type:    memoryType,
			Tags:    append([]string(nil), tags...),
		}
		if len(metadata) > 0 || len(chunks) > 1 {
			p.Metadata = make(map[string]interface{}, len(metadata)+1)
			for k, v := range metadata {
				p.Metadata[k] = v
			}
		}
		if len(chunks) > 1 {
			p.Title += c.TitleSuffix()
			p.Tags = append(p.Tags, "chunked", fmt.Sprintf("chunk-%d-of-%d", c.Index, c.Total))
			p.Metadata["chunking"] = map[string]interface{}{
				"chunkIndex":     c.Index,
				"totalChunks":    c.Total,
				"originalLength": len(content),
				"startOffset":    c.Start,
				"endOffset":      c.End,
				"isContinuation": c.IsContinuation(),
				"splitMethod":    c.SplitMethod,
			}
		}
		payloads = append(payloads, p)
	}
	return payloads
}
