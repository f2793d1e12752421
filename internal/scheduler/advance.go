package scheduler

import (
	"github.com/radiodial/station/internal/clock"
	"github.com/radiodial/station/internal/media"
)

// advance chooses the next item for a station's program: branches are
// tried in order and the first success returns. state is mutated in place
// and saved by whichever branch succeeds, so fields not mentioned by a
// branch are preserved automatically.
func (sc *Scheduler) advance(rt *stationRuntime, state *media.StationState, entry media.ScheduleEntry, now, slotEnd float64, active bool) (*media.NowPlaying, error) {
	if np, ok, err := sc.advanceQueue(rt, state, entry, now, slotEnd, active); err != nil || ok {
		return np, err
	}
	if np, ok, err := sc.advanceTopOfHour(rt, state, now, slotEnd); err != nil || ok {
		return np, err
	}
	if np, ok, err := sc.advanceBreak(rt, state, now, slotEnd); err != nil || ok {
		return np, err
	}
	if np, ok, err := sc.advanceSong(rt, state, entry, now, slotEnd, active); err != nil || ok {
		return np, err
	}
	return sc.advanceFiller(rt, state, now, slotEnd)
}

// (a) Continue queue.
func (sc *Scheduler) advanceQueue(rt *stationRuntime, state *media.StationState, entry media.ScheduleEntry, now, slotEnd float64, active bool) (*media.NowPlaying, bool, error) {
	for len(state.Queue) > 0 && state.QueueIndex < len(state.Queue) {
		mediaID := state.Queue[state.QueueIndex]
		m, err := sc.store.GetMedia(mediaID)
		if err != nil {
			return nil, false, err
		}
		if m == nil {
			// Media lookup failure mid-queue: skip it, clear the queue, fall
			// through to the next advance branch.
			state.Queue = nil
			state.QueueIndex = 0
			break
		}

		state.CurrentMediaID = &mediaID
		state.Kind = m.Kind
		state.StartedTS = now
		state.EndsTS = now + m.DurationS
		state.QueueIndex++

		var overlay *media.OverlayIdent
		if m.Kind == media.KindSong && active {
			overlay, err = sc.tryOverlay(rt, state, entry)
			if err != nil {
				return nil, false, err
			}
		}

		play := media.Play{StationID: rt.id, MediaID: mediaID, Kind: m.Kind, StartedTS: now}
		if _, err := sc.store.AppendPlayAndSaveState(play, state); err != nil {
			return nil, false, err
		}
		return &media.NowPlaying{
			Station: rt.name, Kind: m.Kind, Path: m.Path, MediaID: &mediaID,
			StartedTS: now, EndsTS: state.EndsTS, SlotEndTS: slotEnd, Overlay: overlay,
		}, true, nil
	}
	return nil, false, nil
}

// (b) Top-of-hour.
func (sc *Scheduler) advanceTopOfHour(rt *stationRuntime, state *media.StationState, now, slotEnd float64) (*media.NowPlaying, bool, error) {
	if rt.cfg.TopOfTheHourDir == "" {
		return nil, false, nil
	}
	slotStart := clock.HourSlotStart(now, sc.loc)
	if state.LastTothSlotTS == slotStart {
		return nil, false, nil
	}

	m, err := sc.store.RandomMediaWithPrefix(media.KindTopOfHour, rt.cfg.TopOfTheHourDir)
	if err != nil {
		return nil, false, err
	}
	if m == nil {
		return nil, false, nil
	}

	state.CurrentMediaID = &m.ID
	state.Kind = media.KindTopOfHour
	state.StartedTS = now
	state.EndsTS = now + m.DurationS
	state.Queue = nil
	state.QueueIndex = 0
	state.LastTothSlotTS = slotStart

	play := media.Play{StationID: rt.id, MediaID: m.ID, Kind: media.KindTopOfHour, StartedTS: now}
	if _, err := sc.store.AppendPlayAndSaveState(play, state); err != nil {
		return nil, false, err
	}
	return &media.NowPlaying{
		Station: rt.name, Kind: media.KindTopOfHour, Path: m.Path, MediaID: &m.ID,
		StartedTS: now, EndsTS: state.EndsTS, SlotEndTS: slotEnd,
	}, true, nil
}

// (c) Commercial break.
func (sc *Scheduler) advanceBreak(rt *stationRuntime, state *media.StationState, now, slotEnd float64) (*media.NowPlaying, bool, error) {
	if !state.PendingBreak || rt.cfg.BreakLengthS <= 0 {
		return nil, false, nil
	}

	skipLeadingIdent := state.Kind == media.KindIdent
	ids, err := sc.buildBreakQueue(rt, rt.cfg.BreakLengthS, breakSlopS, skipLeadingIdent)
	if err != nil {
		return nil, false, err
	}
	if len(ids) == 0 {
		state.PendingBreak = false
		return nil, false, nil
	}

	first := ids[0]
	m, err := sc.store.GetMedia(first)
	if err != nil {
		return nil, false, err
	}
	if m == nil {
		state.PendingBreak = false
		return nil, false, nil
	}

	state.CurrentMediaID = &first
	state.Kind = m.Kind
	state.StartedTS = now
	state.EndsTS = now + m.DurationS
	state.Queue = ids[1:]
	state.QueueIndex = 0
	state.PendingBreak = false
	state.LastBreakTS = now
	state.ForceIdentNext = true

	play := media.Play{StationID: rt.id, MediaID: first, Kind: m.Kind, StartedTS: now}
	if _, err := sc.store.AppendPlayAndSaveState(play, state); err != nil {
		return nil, false, err
	}
	return &media.NowPlaying{
		Station: rt.name, Kind: m.Kind, Path: m.Path, MediaID: &first,
		StartedTS: now, EndsTS: state.EndsTS, SlotEndTS: slotEnd,
	}, true, nil
}

// (d) Best-fit song.
func (sc *Scheduler) advanceSong(rt *stationRuntime, state *media.StationState, entry media.ScheduleEntry, now, slotEnd float64, active bool) (*media.NowPlaying, bool, error) {
	song, err := sc.bestFitSong(rt, entry.Tags, slotEnd-now, now)
	if err != nil {
		return nil, false, err
	}
	if song == nil {
		return nil, false, nil
	}

	state.CurrentMediaID = &song.ID
	state.Kind = media.KindSong
	state.StartedTS = now
	state.EndsTS = now + song.DurationS
	state.Queue = nil
	state.QueueIndex = 0

	if rt.cfg.IdentFrequencyS > 0 && now-state.LastIdentTS >= rt.cfg.IdentFrequencyS {
		ident, err := sc.store.RandomMediaWithPrefix(media.KindIdent, rt.cfg.IdentsDir)
		if err != nil {
			return nil, false, err
		}
		if ident != nil {
			state.Queue = []int64{ident.ID}
			state.LastIdentTS = now
		}
	}

	var overlay *media.OverlayIdent
	if active {
		overlay, err = sc.tryOverlay(rt, state, entry)
		if err != nil {
			return nil, false, err
		}
	}

	play := media.Play{StationID: rt.id, MediaID: song.ID, Kind: media.KindSong, StartedTS: now}
	if _, err := sc.store.AppendPlayAndSaveState(play, state); err != nil {
		return nil, false, err
	}
	return &media.NowPlaying{
		Station: rt.name, Kind: media.KindSong, Path: song.Path, MediaID: &song.ID,
		StartedTS: now, EndsTS: state.EndsTS, SlotEndTS: slotEnd, Overlay: overlay,
	}, true, nil
}

// (e) Filler.
func (sc *Scheduler) advanceFiller(rt *stationRuntime, state *media.StationState, now, slotEnd float64) (*media.NowPlaying, error) {
	ids, err := sc.buildBreakQueue(rt, slotEnd-now, breakSlopS, false)
	if err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		first := ids[0]
		m, err := sc.store.GetMedia(first)
		if err != nil {
			return nil, err
		}
		if m != nil {
			state.CurrentMediaID = &first
			state.Kind = m.Kind
			state.StartedTS = now
			state.EndsTS = now + m.DurationS
			state.Queue = ids[1:]
			state.QueueIndex = 0

			play := media.Play{StationID: rt.id, MediaID: first, Kind: m.Kind, StartedTS: now}
			if _, err := sc.store.AppendPlayAndSaveState(play, state); err != nil {
				return nil, err
			}
			return &media.NowPlaying{
				Station: rt.name, Kind: m.Kind, Path: m.Path, MediaID: &first,
				StartedTS: now, EndsTS: state.EndsTS, SlotEndTS: slotEnd,
			}, nil
		}
	}

	state.Kind = media.KindNoise
	state.CurrentMediaID = nil
	state.StartedTS = now
	state.EndsTS = slotEnd
	state.Queue = nil
	state.QueueIndex = 0
	if err := sc.store.SaveState(state); err != nil {
		return nil, err
	}
	return &media.NowPlaying{Station: rt.name, Kind: media.KindNoise, StartedTS: now, EndsTS: slotEnd, SlotEndTS: slotEnd}, nil
}
