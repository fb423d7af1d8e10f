package render

import "sync"

// Document holds the inner markup of the page's mount points, keyed by
// element id.
type Document struct {
	mu     sync.RWMutex
	mounts map[string]string
}

// NewDocument creates a document with the given mount points, all empty.
func NewDocument(ids ...string) *Document {
	mounts := make(map[string]string, len(ids))
	for _, id := range ids {
		mounts[id] = ""
	}
	return &Document{mounts: mounts}
}

// SetInners replaces the content of the given mount points in one step.
// Readers never see a mix of old and new content.
func (d *Document) SetInners(markup map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, m := range markup {
		d.mounts[id] = m
	}
}

// Inners returns the content of the given mount points, read together.
func (d *Document) Inners(ids ...string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = d.mounts[id]
	}
	return out
}
