package scheduler

import "github.com/radiodial/station/internal/media"

const breakSlopS = 4.0

// buildBreakQueue optionally leads with a random station ident, then
// greedily fills with shuffled commercials until the
// target duration (plus slop) would be exceeded. Used both for realized
// commercial breaks and for slot filler.
func (sc *Scheduler) buildBreakQueue(rt *stationRuntime, targetS, slopS float64, skipLeadingIdent bool) ([]int64, error) {
	var ids []int64
	var total float64

	if !skipLeadingIdent {
		ident, err := sc.store.RandomMediaWithPrefix(media.KindIdent, rt.cfg.IdentsDir)
		if err != nil {
			return nil, err
		}
		if ident != nil {
			ids = append(ids, ident.ID)
			total += ident.DurationS
		}
	}

	pool, err := sc.store.CommercialPool(rt.cfg.CommercialsDir, commercialPoolN)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	rt.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	rt.mu.Unlock()

	for _, m := range pool {
		if m.DurationS <= 0.1 {
			continue
		}
		if total+m.DurationS <= targetS+slopS {
			ids = append(ids, m.ID)
			total += m.DurationS
		}
	}

	return ids, nil
}
