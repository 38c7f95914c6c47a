package world

import (
	"fmt"

	"github.com/pixil98/go-errors"
)

// CheckInvariants verifies that the cache and the zone index agree and that
// every cached building is internally consistent.
func (w *World) CheckInvariants() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	el := errors.NewErrorList()
	counts := map[int64]int{}
	for id, b := range w.buildings {
		if err := b.Check(w.grid); err != nil {
			el.Add(err)
		}
		if !w.index.Contains(b.Zone, id) {
			el.Add(fmt.Errorf("building %d cached but missing from zone %d", id, b.Zone))
		}
		if _, ok := w.tombstones[id]; ok {
			el.Add(fmt.Errorf("building %d is both live and a tombstone", id))
		}
		counts[int64(b.Owner)]++
	}
	if n := w.index.Len(); n != len(w.buildings) {
		el.Add(fmt.Errorf("zone index holds %d buildings, cache holds %d", n, len(w.buildings)))
	}
	for owner, n := range w.ownedCounts {
		if counts[int64(owner)] != n {
			el.Add(fmt.Errorf("player %d owns %d buildings, counted %d", owner, counts[int64(owner)], n))
		}
	}
	return el.Err()
}
