package scheduler

import (
	"github.com/radiodial/station/internal/media"
)

const (
	durationJitterS  = 12.0
	poolLimit        = 600
	nearWindowS      = 30.0
	topNByDuration   = 20
	commercialPoolN  = 800
)

// bestFitSong picks the longest song (within tags) that still fits the
// remaining slot, diversified by jitter, avoid-sets, and
// near-tie sampling so parallel stations don't converge on identical
// sequences.
func (sc *Scheduler) bestFitSong(rt *stationRuntime, tags []string, maxDuration, now float64) (*media.Media, error) {
	if maxDuration <= 1.0 || len(tags) == 0 {
		return nil, nil
	}

	rt.mu.Lock()
	jitter := rt.rng.Float64() * durationJitterS
	rt.mu.Unlock()
	effectiveMax := maxDuration - jitter

	pool, err := sc.store.SongPool(tags, effectiveMax, poolLimit)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, nil
	}

	avoid, err := sc.avoidSet(rt.id)
	if err != nil {
		return nil, err
	}

	var filtered []media.Media
	for _, m := range pool {
		if !avoid[m.ID] {
			filtered = append(filtered, m)
		}
	}
	if len(filtered) == 0 {
		filtered = pool
	}

	top := filtered[0].DurationS
	var nearTies []media.Media
	for _, m := range filtered {
		if top-m.DurationS <= nearWindowS {
			nearTies = append(nearTies, m)
		}
	}

	candidates := nearTies
	if len(candidates) < 2 {
		n := topNByDuration
		if n > len(filtered) {
			n = len(filtered)
		}
		candidates = filtered[:n]
	}

	rt.mu.Lock()
	chosen := candidates[rt.rng.IntN(len(candidates))]
	rt.mu.Unlock()

	sc.reserve(chosen.ID)
	return &chosen, nil
}

// avoidSet returns the scheduler-level per-tick reservations plus the media
// ids currently playing on every other station's cursor.
func (sc *Scheduler) avoidSet(excludeStation int64) (map[int64]bool, error) {
	others, err := sc.store.CurrentlyPlayingMediaIDs(excludeStation)
	if err != nil {
		return nil, err
	}

	sc.reservedMu.Lock()
	for id := range sc.reserved {
		others[id] = true
	}
	sc.reservedMu.Unlock()

	return others, nil
}

func (sc *Scheduler) reserve(id int64) {
	sc.reservedMu.Lock()
	sc.reserved[id] = true
	sc.reservedMu.Unlock()
}
