package tags

import (
	"fmt"
	"strings"
)

// CorkQueue buffers tag entries while a scanner is inside a cork session, so
// a member symbol can reference its enclosing type by handle before that
// type's record has been written. Handles are 1-based and stable for the
// lifetime of one session; slot 0 is the ScopeNone sentinel. All storage is
// released in bulk at the final uncork.
//
// Cork/Uncork form a cooperative nesting counter, not a lock. The queue is
// safe only under the strictly sequential single-writer model: one scanner
// produces entries, one writer drains them.
type CorkQueue struct {
	entries []*Entry
	depth   int
}

// Corked reports whether a cork session is active.
func (q *CorkQueue) Corked() bool { return q.depth > 0 }

// Depth returns the current cork nesting level.
func (q *CorkQueue) Depth() int { return q.depth }

// Count returns the number of slots in use, including the sentinel.
// Zero when no session is active.
func (q *CorkQueue) Count() int { return len(q.entries) }

// Cork increments the nesting counter. The 0->1 transition allocates the
// queue with its sentinel slot.
func (q *CorkQueue) Cork() {
	q.depth++
	if q.depth == 1 {
		q.entries = make([]*Entry, 1, 16)
	}
}

// Add copies the entry into the queue and returns its handle. The caller
// may reuse or mutate its entry immediately after Add returns.
// Calling Add outside a cork session is a programmer error.
func (q *CorkQueue) Add(e *Entry) int {
	if q.depth == 0 {
		panic("tags: Add called outside a cork session")
	}
	q.entries = append(q.entries, e.detach())
	return len(q.entries) - 1
}

// At returns the queued entry for a handle, or nil when the handle is the
// sentinel, negative, or beyond the queue.
func (q *CorkQueue) At(handle int) *Entry {
	if handle <= ScopeNone || handle >= len(q.entries) {
		return nil
	}
	return q.entries[handle]
}

// Uncork decrements the nesting counter. The 1->0 transition writes every
// queued non-placeholder entry in insertion order through write, then
// releases the queue; all handles are invalid afterwards. A write error
// stops the flush but still drops the queue (no partial-write recovery).
func (q *CorkQueue) Uncork(write func(*Entry) error) error {
	if q.depth == 0 {
		panic("tags: Uncork without matching Cork")
	}
	q.depth--
	if q.depth > 0 {
		return nil
	}

	var err error
	for _, e := range q.entries[1:] {
		if e.Placeholder {
			continue
		}
		if err = write(e); err != nil {
			break
		}
	}
	q.entries = nil
	return err
}

// QualifiedName builds the fully qualified scope text for the entry chain
// starting at (and including) scope: names are collected upward to the
// sentinel, placeholders skipped, and joined root-to-leaf with '.'.
// A revisited handle means the scope references form a cycle; the walk
// aborts with a diagnostic naming the entry whose scope link closed the
// loop, since that is where the bad reference lives.
func (q *CorkQueue) QualifiedName(scope *Entry) (string, error) {
	var names []string
	seen := make(map[*Entry]bool)

	var prev *Entry
	for scope != nil {
		if seen[scope] {
			return "", fmt.Errorf("tags: scope chain cycle at %q (%s:%d)",
				prev.Name, prev.InputFile, prev.LineNumber)
		}
		seen[scope] = true
		if !scope.Placeholder {
			names = append(names, scope.Name)
		}
		prev = scope
		scope = q.At(scope.Extension.ScopeIndex)
	}

	// names were collected leaf-to-root
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, "."), nil
}
