package scheduler

import "github.com/radiodial/station/internal/media"

// tryOverlay attempts to schedule an overlay for a song that just started
// on an active station. It mutates state.ForceIdentNext in place: clearing
// it counts as consuming the flag whether or not an overlay actually
// fires, since a forced overlay is best-effort and never latches.
func (sc *Scheduler) tryOverlay(rt *stationRuntime, state *media.StationState, entry media.ScheduleEntry) (*media.OverlayIdent, error) {
	if entry.OverlaysDir == "" {
		state.ForceIdentNext = false
		return nil, nil
	}

	m, err := sc.store.RandomMediaWithPrefix(media.KindOverlay, entry.OverlaysDir)
	if err != nil {
		return nil, err
	}
	if m == nil {
		state.ForceIdentNext = false
		return nil, nil
	}

	rt.mu.Lock()
	draw := rt.rng.Float64()
	rt.mu.Unlock()

	due := state.ForceIdentNext || (entry.OverlaysProbability > 0 && draw < entry.OverlaysProbability)
	if !due {
		return nil, nil
	}

	state.ForceIdentNext = false
	return &media.OverlayIdent{
		Path:  m.Path,
		AtS:   rt.cfg.OverlayPadS,
		Duck:  clamp01(rt.cfg.OverlayDuck),
		RampS: rt.cfg.OverlayRampS,
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
