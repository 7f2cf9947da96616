package rustgine

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/TheBitDrifter/mask"
)

func newQuery() Query {
	return Query{}
}

// And returns a copy of q that also requires items.
func (q Query) And(items ...Component) Query {
	q.required = append(slices.Clone(q.required), items...)
	return q
}

// Not returns a copy of q that also excludes items.
func (q Query) Not(items ...Component) Query {
	q.excluded = append(slices.Clone(q.excluded), items...)
	return q
}

// Or returns a copy of q that also accepts archetypes carrying any of items.
func (q Query) Or(items ...Component) Query {
	q.anyOf = append(slices.Clone(q.anyOf), items...)
	return q
}

// signature is a Query resolved against one World's bit assignment.
type signature struct {
	required mask.Mask
	excluded mask.Mask
	anyOf    mask.Mask
	hasAny   bool
	key      string
}

func (s signature) matches(m mask.Mask) bool {
	if !m.ContainsAll(s.required) {
		return false
	}
	if m.ContainsAny(s.excluded) {
		return false
	}
	return !s.hasAny || m.ContainsAny(s.anyOf)
}

func (w *World) resolve(q Query) (signature, error) {
	var sig signature
	var parts [3][]int
	groups := [3][]Component{q.required, q.excluded, q.anyOf}
	targets := [3]*mask.Mask{&sig.required, &sig.excluded, &sig.anyOf}
	for g, components := range groups {
		for _, c := range components {
			bit, err := w.registry.bitFor(c)
			if err != nil {
				return sig, err
			}
			targets[g].Mark(bit)
			parts[g] = append(parts[g], int(bit))
		}
	}
	sig.hasAny = len(q.anyOf) > 0

	var b strings.Builder
	for g, bits := range parts {
		if g > 0 {
			b.WriteByte('|')
		}
		slices.Sort(bits)
		bits = slices.Compact(bits)
		for i, bit := range bits {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(bit))
		}
	}
	sig.key = b.String()
	return sig, nil
}

type cachedQuery struct {
	sig     signature
	matched []*archetype
}

// queryCache keeps, per signature requested at least once, the archetypes
// that match it. New archetypes are tested against every cached signature
// once, when they are created.
type queryCache struct {
	mu    sync.RWMutex
	cache *SimpleCache[cachedQuery]
}

func newQueryCache(capacity int) *queryCache {
	return &queryCache{
		cache: FactoryNewCache[cachedQuery](capacity).(*SimpleCache[cachedQuery]),
	}
}

func (qc *queryCache) archetypeCreated(arch *archetype) {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	for i := 0; i < qc.cache.Len(); i++ {
		entry := qc.cache.GetItem(i)
		if entry.sig.matches(arch.mask) {
			entry.matched = append(entry.matched, arch)
		}
	}
}

// matching returns the archetypes matching sig in creation order. The
// returned slice must not be modified.
func (qc *queryCache) matching(sig signature, all []*archetype) ([]*archetype, error) {
	qc.mu.RLock()
	if idx, ok := qc.cache.GetIndex(sig.key); ok {
		matched := qc.cache.GetItem(idx).matched
		qc.mu.RUnlock()
		return matched, nil
	}
	qc.mu.RUnlock()

	qc.mu.Lock()
	defer qc.mu.Unlock()
	if idx, ok := qc.cache.GetIndex(sig.key); ok {
		return qc.cache.GetItem(idx).matched, nil
	}
	entry := cachedQuery{sig: sig}
	for _, arch := range all {
		if sig.matches(arch.mask) {
			entry.matched = append(entry.matched, arch)
		}
	}
	if _, err := qc.cache.Register(sig.key, entry); err != nil {
		// A full cache still answers, it just stops remembering.
		var full QueryCacheFullError
		if errors.As(err, &full) {
			return entry.matched, nil
		}
		return nil, err
	}
	return entry.matched, nil
}

// CachedQueries returns how many distinct signatures the World tracks.
func (w *World) CachedQueries() int {
	w.queries.mu.RLock()
	defer w.queries.mu.RUnlock()
	return w.queries.cache.Len()
}

// Matching returns the archetypes q matches, in creation order.
func (w *World) Matching(q Query) ([]Archetype, error) {
	matched, err := w.match(q)
	if err != nil {
		return nil, err
	}
	out := make([]Archetype, len(matched))
	for i, arch := range matched {
		out[i] = arch
	}
	return out, nil
}

func (w *World) match(q Query) ([]*archetype, error) {
	sig, err := w.resolve(q)
	if err != nil {
		return nil, err
	}
	return w.queries.matching(sig, w.archetypes.asSlice)
}
