package zones

import "sync"

// Index tracks which entities are located in which zone. It only answers
// spatial questions; it never owns the entities themselves.
type Index[ID comparable] struct {
	grid Grid

	mu      sync.RWMutex
	members map[Key]map[ID]Point
}

func NewIndex[ID comparable](grid Grid) *Index[ID] {
	return &Index[ID]{
		grid:    grid,
		members: make(map[Key]map[ID]Point),
	}
}

// Grid returns the grid the index partitions.
func (ix *Index[ID]) Grid() Grid {
	return ix.grid
}

// Add places id in zone at position p, replacing any earlier position.
func (ix *Index[ID]) Add(zone Key, id ID, p Point) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	set, ok := ix.members[zone]
	if !ok {
		set = make(map[ID]Point)
		ix.members[zone] = set
	}
	set[id] = p
}

// Remove drops id from zone. It reports whether the id was present.
func (ix *Index[ID]) Remove(zone Key, id ID) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	set, ok := ix.members[zone]
	if !ok {
		return false
	}
	if _, ok := set[id]; !ok {
		return false
	}
	delete(set, id)
	if len(set) == 0 {
		delete(ix.members, zone)
	}
	return true
}

// Contains reports whether id is indexed under zone.
func (ix *Index[ID]) Contains(zone Key, id ID) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	_, ok := ix.members[zone][id]
	return ok
}

// Members returns the ids indexed under zone.
func (ix *Index[ID]) Members(zone Key) []ID {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	ids := make([]ID, 0, len(ix.members[zone]))
	for id := range ix.members[zone] {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the total number of indexed ids.
func (ix *Index[ID]) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := 0
	for _, set := range ix.members {
		n += len(set)
	}
	return n
}

// Neighbors returns zone and its adjacent zones.
func (ix *Index[ID]) Neighbors(zone Key) []Key {
	return ix.grid.Neighbors(zone)
}

// Query returns the ids within radius of p. Only zones overlapping the
// bounding box of the query circle are scanned.
func (ix *Index[ID]) Query(p Point, radius float64) []ID {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var ids []ID
	for _, zone := range ix.grid.Overlapping(p, radius) {
		for id, pos := range ix.members[zone] {
			if pos.Distance(p) <= radius {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
