package lsp

import (
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/removestar/pkg/removestar"
)

// document is a snapshot of an open text document. The fix outcome is
// cached until the next notification touching the document.
type document struct {
	text    string
	version protocol.Integer

	analyzed bool
	result   *removestar.Result
	err      error
}

// documents tracks the open documents by URI.
type documents struct {
	mu   sync.Mutex
	byID map[protocol.DocumentUri]*document
}

func newDocuments() *documents {
	return &documents{byID: make(map[protocol.DocumentUri]*document)}
}

func (d *documents) open(uri protocol.DocumentUri, text string, version protocol.Integer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.byID[uri] = &document{text: text, version: version}
}

// update replaces the text of an open document. Unknown documents and
// versions older than the stored one are rejected.
func (d *documents) update(uri protocol.DocumentUri, text string, version protocol.Integer) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, ok := d.byID[uri]
	if !ok || version < doc.version {
		return false
	}

	d.byID[uri] = &document{text: text, version: version}

	return true
}

// saved drops the cached fix of uri and, when text is non-nil, replaces the
// document text keeping its version. It reports whether uri is open.
func (d *documents) saved(uri protocol.DocumentUri, text *string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, ok := d.byID[uri]
	if !ok {
		return false
	}

	next := &document{text: doc.text, version: doc.version}
	if text != nil {
		next.text = *text
	}

	d.byID[uri] = next

	return true
}

func (d *documents) get(uri protocol.DocumentUri) (document, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, ok := d.byID[uri]
	if !ok {
		return document{}, false
	}

	return *doc, true
}

// remember caches a fix outcome for snap unless the document changed since
// the snapshot was taken.
func (d *documents) remember(uri protocol.DocumentUri, snap document, result *removestar.Result, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, ok := d.byID[uri]
	if !ok || doc.version != snap.version || doc.text != snap.text {
		return
	}

	doc.analyzed = true
	doc.result = result
	doc.err = err
}

func (d *documents) close(uri protocol.DocumentUri) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.byID, uri)
}

func (d *documents) len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.byID)
}
