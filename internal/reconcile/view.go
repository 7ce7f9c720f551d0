// Package reconcile keeps a viewer's local copy of a project's contributions
// consistent with the server while applying the viewer's own changes
// optimistically.
package reconcile

import (
	"sort"
	"sync"

	"github.com/mianjunaid1223/Collab-Studio/internal/modules/model"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
)

// Entry is one contribution in the local view. Pending entries are local
// changes the server has not confirmed yet; they carry no id.
type Entry struct {
	Contribution *model.Contribution
	ClientRef    string
	Pending      bool
}

// pending is an unconfirmed local change: an addition, or a removal that hid
// the newest confirmed entry at its key.
type pending struct {
	ref    string
	add    *model.Contribution
	remove *canvas.GridKey
	hidden *model.Contribution
}

// View is the id-deduplicated, ordered contribution set of one project.
// Confirmed entries are ordered by id, which is commit order; pending ones
// follow in submission order.
type View struct {
	mu        sync.Mutex
	confirmed map[int64]*model.Contribution
	pending   []*pending
	project   *model.Project
}

func NewView() *View {
	return &View{confirmed: make(map[int64]*model.Contribution)}
}

func (v *View) findPending(ref string) (int, *pending) {
	if ref == "" {
		return -1, nil
	}
	for i, p := range v.pending {
		if p.ref == ref {
			return i, p
		}
	}
	return -1, nil
}

func (v *View) dropPending(i int) {
	v.pending = append(v.pending[:i], v.pending[i+1:]...)
}

// ApplyAdd records an optimistic addition under ref.
func (v *View) ApplyAdd(ref string, c *model.Contribution) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pending = append(v.pending, &pending{ref: ref, add: c})
}

// ApplyRemove optimistically hides the newest confirmed entry at key, the one
// the server deletes.
func (v *View) ApplyRemove(ref string, key canvas.GridKey) {
	v.mu.Lock()
	defer v.mu.Unlock()

	p := &pending{ref: ref, remove: &key}
	if c := v.newestAt(key); c != nil {
		p.hidden = c
		delete(v.confirmed, c.ID)
	}
	v.pending = append(v.pending, p)
}

func (v *View) newestAt(key canvas.GridKey) *model.Contribution {
	var newest *model.Contribution
	for _, c := range v.confirmed {
		if k, ok := c.Key(); ok && k == key && (newest == nil || c.ID > newest.ID) {
			newest = c
		}
	}
	return newest
}

// Added merges a committed contribution. It reports false when the id is
// already known, which happens when both the broadcast and the ack arrive.
func (v *View) Added(c *model.Contribution, ref string) bool {
	if c == nil {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	if i, p := v.findPending(ref); p != nil && p.add != nil {
		v.dropPending(i)
	}
	if _, ok := v.confirmed[c.ID]; ok {
		return false
	}
	v.confirmed[c.ID] = c
	return true
}

// Removed applies a committed removal of contribution id at key. It reports
// whether anything visible changed. Other entries at key stay: the server
// deletes one entry per removal.
func (v *View) Removed(key canvas.GridKey, id int64, ref string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	changed := false
	if i, p := v.findPending(ref); p != nil && p.remove != nil {
		v.dropPending(i)
		if h := p.hidden; h != nil {
			if id == 0 {
				id = h.ID
			}
			if h.ID != id {
				// hid a different entry than the one the server removed
				v.confirmed[h.ID] = h
				changed = true
			}
		}
	}

	if _, ok := v.confirmed[id]; ok && id != 0 {
		delete(v.confirmed, id)
		changed = true
	}
	return changed
}

// Settle clears the pending marker of ref without touching confirmed
// entries. Used for acknowledged no-op removals.
func (v *View) Settle(ref string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i, p := v.findPending(ref); p != nil {
		v.dropPending(i)
	}
}

// Rollback revokes the optimistic change ref. It reports false if ref is not
// pending, e.g. after a resync already replaced the view.
func (v *View) Rollback(ref string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	i, p := v.findPending(ref)
	if p == nil {
		return false
	}
	v.dropPending(i)
	if p.hidden != nil {
		v.confirmed[p.hidden.ID] = p.hidden
	}
	return true
}

// Replace swaps the whole view for an authoritative listing. Pending local
// changes are discarded: the ones the server committed are in the listing.
func (v *View) Replace(items []*model.Contribution, project *model.Project) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.confirmed = make(map[int64]*model.Contribution, len(items))
	for _, c := range items {
		v.confirmed[c.ID] = c
	}
	v.pending = nil
	if project != nil {
		v.project = project
	}
}

func (v *View) SetProject(p *model.Project) {
	if p == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.project = p
}

func (v *View) Project() *model.Project {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.project
}

func (v *View) IsPending(ref string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, p := v.findPending(ref)
	return p != nil
}

// Entries returns the visible contributions: confirmed by id, then pending
// additions.
func (v *View) Entries() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]Entry, 0, len(v.confirmed)+len(v.pending))
	for _, c := range v.confirmed {
		out = append(out, Entry{Contribution: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Contribution.ID < out[j].Contribution.ID })
	for _, p := range v.pending {
		if p.add != nil {
			out = append(out, Entry{Contribution: p.add, ClientRef: p.ref, Pending: true})
		}
	}
	return out
}

// Len is the number of visible contributions.
func (v *View) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := len(v.confirmed)
	for _, p := range v.pending {
		if p.add != nil {
			n++
		}
	}
	return n
}

// Confirmed is the number of confirmed contributions.
func (v *View) Confirmed() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.confirmed)
}
