package passage

// Occurrence records one retrieval result that mapped onto a pooled key,
// including results discarded as duplicates.
type Occurrence struct {
	SourceQuery int
	Rank        int
}

// Pool accumulates passages across retrieval calls, deduplicating by
// normalized title. The first passage seen for a key, in insertion order,
// stays canonical; later duplicates only contribute an Occurrence so scoring
// can still credit every source list that mentioned the key.
//
// Pool is not safe for concurrent use; callers gather source lists first and
// insert in a fixed order so first-seen-wins stays deterministic.
type Pool struct {
	order       []string
	index       map[string]int
	canonical   map[string]Passage
	occurrences map[string][]Occurrence
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{
		index:       make(map[string]int),
		canonical:   make(map[string]Passage),
		occurrences: make(map[string][]Occurrence),
	}
}

// Insert adds a passage, returning true when its key was newly seen.
// Duplicate keys keep the first-seen passage but still record the occurrence.
func (p *Pool) Insert(psg Passage) bool {
	key := psg.Key()
	p.occurrences[key] = append(p.occurrences[key], Occurrence{
		SourceQuery: psg.SourceQuery,
		Rank:        psg.Rank,
	})

	if _, seen := p.canonical[key]; seen {
		return false
	}
	p.canonical[key] = psg
	p.index[key] = len(p.order)
	p.order = append(p.order, key)
	return true
}

// All returns the deduplicated passages in first-seen order.
func (p *Pool) All() []Passage {
	out := make([]Passage, 0, len(p.order))
	for _, key := range p.order {
		out = append(out, p.canonical[key])
	}
	return out
}

// Len reports the number of distinct keys in the pool.
func (p *Pool) Len() int {
	return len(p.order)
}

// Get returns the canonical passage for a key.
func (p *Pool) Get(key string) (Passage, bool) {
	psg, ok := p.canonical[key]
	return psg, ok
}

// Occurrences returns every (source query, rank) pair recorded for the key,
// in insertion order.
func (p *Pool) Occurrences(key string) []Occurrence {
	return p.occurrences[key]
}

// SourceQueries returns the distinct source query indices that mentioned the
// key, in first-mention order.
func (p *Pool) SourceQueries(key string) []int {
	occ := p.occurrences[key]
	seen := make(map[int]bool, len(occ))
	var out []int
	for _, o := range occ {
		if !seen[o.SourceQuery] {
			seen[o.SourceQuery] = true
			out = append(out, o.SourceQuery)
		}
	}
	return out
}

// FirstSeen reports the insertion position of a key, used for stable
// tie-breaking downstream. Unknown keys sort last.
func (p *Pool) FirstSeen(key string) int {
	if i, ok := p.index[key]; ok {
		return i
	}
	return len(p.order)
}
