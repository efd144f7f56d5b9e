// Package export accumulates rendered output per page and writes it out.
package export

import "strings"

// Buffer accumulates rendered chunks keyed by page id. A Buffer belongs to
// one conversion and is not safe for concurrent use.
type Buffer struct {
	pages map[string]*strings.Builder
	order []string
}

// NewBuffer returns an empty buffer
func NewBuffer() *Buffer {
	return &Buffer{pages: make(map[string]*strings.Builder)}
}

// Write appends chunk to the buffer of pageID
func (b *Buffer) Write(pageID, chunk string) {
	sb, ok := b.pages[pageID]
	if !ok {
		sb = &strings.Builder{}
		b.pages[pageID] = sb
		b.order = append(b.order, pageID)
	}
	sb.WriteString(chunk)
}

// Flush returns the accumulated text of pageID and clears it.
// Flushing an unknown page returns the empty string.
func (b *Buffer) Flush(pageID string) string {
	sb, ok := b.pages[pageID]
	if !ok {
		return ""
	}
	delete(b.pages, pageID)
	for i, id := range b.order {
		if id == pageID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return sb.String()
}

// Pages lists the ids with pending output in first-write order
func (b *Buffer) Pages() []string {
	return append([]string(nil), b.order...)
}

// Len returns the number of pages with pending output
func (b *Buffer) Len() int {
	return len(b.order)
}

// FlushAll drains every page buffer into a map
func (b *Buffer) FlushAll() map[string]string {
	out := make(map[string]string, len(b.order))
	for _, id := range b.Pages() {
		out[id] = b.Flush(id)
	}
	return out
}
