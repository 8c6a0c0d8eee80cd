package registry

import (
	"io"
	"log/slog"
	"slices"

	"github.com/vk/floodpath/internal/candidate"
	"github.com/vk/floodpath/internal/flow"
	"github.com/vk/floodpath/internal/grid"
)

// Record is a finalized critical path owned by a surviving candidate.
type Record struct {
	ID     int64
	Cells  []grid.Cell
	Weight float64
	Hits   []grid.Cell
	// InheritedFrom is the id of the entry whose downstream suffix this
	// record took over under PriorityMerge, 0 if none.
	InheritedFrom   int64
	InheritedWeight float64
}

func (r *Record) clone() Record {
	out := *r
	out.Cells = slices.Clone(r.Cells)
	out.Hits = slices.Clone(r.Hits)
	return out
}

// Stats counts what happened to traces during a run.
type Stats struct {
	Registered int // entries created
	Discarded  int // non-critical traces that reached a terminal cell
	Dropped    int // traces stopped by convergence without being registered
	Inherited  int // entries created with an inherited suffix
	Truncated  int // entries cut back to a junction
	Removed    int // entries removed after handing over their evidence
}

type entry struct {
	rec *Record
	seq uint64
}

// Registry maps surviving candidate ids to their records and keeps a cell
// index answering which entries contain a cell.
type Registry struct {
	policy  Policy
	logger  *slog.Logger
	entries map[int64]*entry
	owners  map[grid.Cell]map[int64]struct{}
	seq     uint64
	stats   Stats
}

var _ flow.Arbiter = (*Registry)(nil)

// New creates an empty registry for one run. A nil logger discards output.
func New(policy Policy, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		policy:  policy,
		logger:  logger.With("policy", policy.String()),
		entries: make(map[int64]*entry),
		owners:  make(map[grid.Cell]map[int64]struct{}),
	}
}

// Policy returns the active policy.
func (r *Registry) Policy() Policy { return r.policy }

// Len returns the number of live entries.
func (r *Registry) Len() int { return len(r.entries) }

// Stats returns the counters accumulated so far.
func (r *Registry) Stats() Stats { return r.stats }

// Get returns a copy of the entry registered for id.
func (r *Registry) Get(id int64) (Record, bool) {
	e, ok := r.entries[id]
	if !ok {
		return Record{}, false
	}
	return e.rec.clone(), true
}

// Records returns copies of all live entries ordered by ascending id.
func (r *Registry) Records() []Record {
	out := make([]Record, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.rec.clone())
	}
	slices.SortFunc(out, func(a, b Record) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// Converge implements flow.Arbiter.
func (r *Registry) Converge(c candidate.Candidate, p *flow.Path) bool {
	switch r.policy {
	case FirstClaim:
		return r.claimFirst(c, p)
	case PriorityMerge:
		return r.mergeByPriority(c, p)
	}
	return false
}

// Finalize implements flow.Arbiter: critical traces are registered,
// non-critical ones discarded.
func (r *Registry) Finalize(c candidate.Candidate, p *flow.Path) {
	if !p.Critical() {
		r.stats.Discarded++
		r.logger.Debug("Trace reached terminal without hazard, discarded.", "candidate", c.ID, "cells", len(p.Cells))
		return
	}
	r.register(own(c, p))
}

func (r *Registry) claimFirst(c candidate.Candidate, p *flow.Path) bool {
	owner, ok := r.owner(p.Tail())
	if !ok {
		return false
	}
	r.logger.Debug("Trace converged onto a claimed path.", "candidate", c.ID, "owner", owner.rec.ID, "cell", p.Tail().String())
	r.keepOrDrop(c, p)
	return true
}

func (r *Registry) mergeByPriority(c candidate.Candidate, p *flow.Path) bool {
	tail := p.Tail()
	owner, ok := r.owner(tail)
	if !ok {
		return false
	}
	rec := owner.rec
	logger := r.logger.With("candidate", c.ID, "owner", rec.ID, "cell", tail.String())

	if rec.Weight <= c.Weight {
		logger.Debug("Trace outweighs the owner at convergence.", "weight", c.Weight, "owner_weight", rec.Weight)
		r.keepOrDrop(c, p)
		return true
	}

	pos := positions(rec.Cells)
	cur := pos[tail]
	first, last := -1, -1
	if len(rec.Hits) > 0 {
		first, last = pos[rec.Hits[0]], pos[rec.Hits[len(rec.Hits)-1]]
	}

	if cur >= last {
		logger.Debug("Owner keeps its route; no hazard evidence downstream of the junction.")
		r.keepOrDrop(c, p)
		return true
	}

	merged := own(c, p)
	merged.Cells = append(merged.Cells, rec.Cells[cur+1:]...)
	for _, h := range rec.Hits {
		if pos[h] > cur {
			merged.Hits = append(merged.Hits, h)
		}
	}
	merged.InheritedFrom = rec.ID
	merged.InheritedWeight = rec.Weight
	r.register(merged)
	r.stats.Inherited++
	logger.Debug("Trace inherited the owner's downstream suffix.", "suffix_cells", len(rec.Cells)-cur-1)

	if first <= cur {
		r.truncate(owner, cur, pos)
	} else {
		r.remove(rec.ID)
		r.stats.Removed++
		logger.Debug("Owner removed, its hazard evidence now belongs to the candidate.")
	}
	return true
}

// keepOrDrop registers the path so far when it is critical.
func (r *Registry) keepOrDrop(c candidate.Candidate, p *flow.Path) {
	if p.Critical() {
		r.register(own(c, p))
		return
	}
	r.stats.Dropped++
}

// owner returns the earliest registered entry containing cell.
func (r *Registry) owner(cell grid.Cell) (*entry, bool) {
	var best *entry
	for id := range r.owners[cell] {
		e := r.entries[id]
		if best == nil || e.seq < best.seq {
			best = e
		}
	}
	return best, best != nil
}

func (r *Registry) register(rec *Record) {
	if _, exists := r.entries[rec.ID]; exists {
		r.remove(rec.ID)
	}
	r.seq++
	r.entries[rec.ID] = &entry{rec: rec, seq: r.seq}
	for _, cell := range rec.Cells {
		ids, ok := r.owners[cell]
		if !ok {
			ids = make(map[int64]struct{}, 1)
			r.owners[cell] = ids
		}
		ids[rec.ID] = struct{}{}
	}
	r.stats.Registered++
	r.logger.Debug("Path registered.", "candidate", rec.ID, "cells", len(rec.Cells), "hazards", len(rec.Hits))
}

// truncate cuts e back so that it ends at index at.
func (r *Registry) truncate(e *entry, at int, pos map[grid.Cell]int) {
	rec := e.rec
	r.unindex(rec.ID, rec.Cells[at+1:])
	rec.Cells = rec.Cells[: at+1 : at+1]
	hits := rec.Hits[:0:0]
	for _, h := range rec.Hits {
		if pos[h] <= at {
			hits = append(hits, h)
		}
	}
	rec.Hits = hits
	r.stats.Truncated++
	r.logger.Debug("Path truncated at junction.", "candidate", rec.ID, "cells", len(rec.Cells), "hazards", len(rec.Hits))
}

func (r *Registry) remove(id int64) {
	e, ok := r.entries[id]
	if !ok {
		return
	}
	r.unindex(id, e.rec.Cells)
	delete(r.entries, id)
}

func (r *Registry) unindex(id int64, cells []grid.Cell) {
	for _, cell := range cells {
		ids := r.owners[cell]
		delete(ids, id)
		if len(ids) == 0 {
			delete(r.owners, cell)
		}
	}
}

// own builds a record from the candidate's own path so far.
func own(c candidate.Candidate, p *flow.Path) *Record {
	return &Record{
		ID:     c.ID,
		Cells:  slices.Clone(p.Cells),
		Weight: c.Weight,
		Hits:   slices.Clone(p.Hits),
	}
}

func positions(cells []grid.Cell) map[grid.Cell]int {
	pos := make(map[grid.Cell]int, len(cells))
	for i, c := range cells {
		if _, ok := pos[c]; !ok {
			pos[c] = i
		}
	}
	return pos
}
