// Package scheduler implements the per-station programming decision engine:
// resolving the local schedule, advancing station_state across song,
// ident, commercial, top-of-hour, and noise transitions, and emitting
// overlay directives for the mixer to act on.
package scheduler

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/radiodial/station/internal/clock"
	"github.com/radiodial/station/internal/config"
	"github.com/radiodial/station/internal/media"
	"github.com/radiodial/station/internal/store"
)

// Scheduler owns every station's runtime and is the sole writer of
// station_state and plays.
type Scheduler struct {
	store *store.Store
	clock clock.Clock
	loc   *time.Location

	mu       sync.RWMutex
	stations map[string]*stationRuntime

	reservedMu sync.Mutex
	reserved   map[int64]bool
}

// New builds a Scheduler from loaded station configs, syncing each into the
// store and seeding its per-station RNG from runEntropy.
func New(st *store.Store, clk clock.Clock, loc *time.Location, runEntropy uint64, stations []*config.Station) (*Scheduler, error) {
	sc := &Scheduler{
		store:    st,
		clock:    clk,
		loc:      loc,
		stations: make(map[string]*stationRuntime, len(stations)),
		reserved: make(map[int64]bool),
	}

	for _, cfgSt := range stations {
		id, err := st.SyncStation(cfgSt.Station)
		if err != nil {
			return nil, fmt.Errorf("scheduler: sync station %q: %w", cfgSt.Name, err)
		}
		if err := st.SyncScheduleOverlays(id, cfgSt.Schedule); err != nil {
			return nil, fmt.Errorf("scheduler: sync schedule overlays %q: %w", cfgSt.Name, err)
		}
		sc.stations[lowerKey(cfgSt.Name)] = newStationRuntime(id, cfgSt, runEntropy)
		slog.Info("scheduler: station registered", "station", cfgSt.Name, "freq", cfgSt.Freq)
	}

	return sc, nil
}

// Stations returns the configured station names and frequencies, for the
// dial and the status API, in registration order (ascending station row id).
func (sc *Scheduler) Stations() []media.Station {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	runtimes := make([]*stationRuntime, 0, len(sc.stations))
	for _, rt := range sc.stations {
		runtimes = append(runtimes, rt)
	}
	sort.Slice(runtimes, func(i, j int) bool { return runtimes[i].id < runtimes[j].id })
	out := make([]media.Station, 0, len(runtimes))
	for _, rt := range runtimes {
		out = append(out, rt.cfg)
	}
	return out
}

// BeginTick resets the per-tick song reservation set. The main loop calls
// this once per tick, before TickAll and any EnsureStationCurrent call for
// the currently tuned station, so the two share one avoid-set and never
// pick the same song for two stations in the same tick.
func (sc *Scheduler) BeginTick() {
	sc.reservedMu.Lock()
	sc.reserved = make(map[int64]bool)
	sc.reservedMu.Unlock()
}

// TickAll advances background maintenance for every station: marking
// break-due flags and rolling over any station whose current item has
// ended. Stations are not marked active, so overlays never fire here.
func (sc *Scheduler) TickAll(now float64) error {
	sc.mu.RLock()
	runtimes := make([]*stationRuntime, 0, len(sc.stations))
	for _, rt := range sc.stations {
		runtimes = append(runtimes, rt)
	}
	sc.mu.RUnlock()

	for _, rt := range runtimes {
		if err := sc.markBreakDue(rt, now); err != nil {
			return fmt.Errorf("scheduler: break-due check for %q: %w", rt.name, err)
		}
		if _, err := sc.ensureCurrent(rt, now, false); err != nil {
			return fmt.Errorf("scheduler: tick for %q: %w", rt.name, err)
		}
	}
	return nil
}

// markBreakDue sets the station's break-pending flag once its configured
// break interval has elapsed since the last break.
func (sc *Scheduler) markBreakDue(rt *stationRuntime, now float64) error {
	if rt.cfg.BreakFrequencyS <= 0 {
		return nil
	}
	state, err := sc.store.GetState(rt.id)
	if err != nil {
		return err
	}
	if state.PendingBreak {
		return nil
	}
	if now-state.LastBreakTS >= rt.cfg.BreakFrequencyS {
		state.PendingBreak = true
		return sc.store.SaveState(state)
	}
	return nil
}

// EnsureStationCurrent returns what the named station should be playing at
// now, advancing its state machine if the current item has ended. active
// must be true only when this station is audible; only then may overlays
// fire and overlay flags be consumed.
func (sc *Scheduler) EnsureStationCurrent(name string, now float64, active bool) (*media.NowPlaying, error) {
	sc.mu.RLock()
	rt, ok := sc.stations[lowerKey(name)]
	sc.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("scheduler: unknown station %q", name)
	}
	return sc.ensureCurrent(rt, now, active)
}

func (sc *Scheduler) ensureCurrent(rt *stationRuntime, now float64, active bool) (*media.NowPlaying, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	weekday, hour := clock.LocalHour(now, sc.loc)
	entry := rt.schedule.Lookup(weekday, hour)
	slotEnd := clock.NextHourBoundary(now, sc.loc)

	// Noise-only slot: always (re)write the noise state, matching the
	// decision algorithm's unconditional step 3.
	if entry.IsEmpty() {
		state := &media.StationState{StationID: rt.id, Kind: media.KindNoise, StartedTS: now, EndsTS: slotEnd}
		if err := sc.store.SaveState(state); err != nil {
			return nil, err
		}
		return &media.NowPlaying{Station: rt.name, Kind: media.KindNoise, StartedTS: now, EndsTS: slotEnd, SlotEndTS: slotEnd}, nil
	}

	state, err := sc.store.GetState(rt.id)
	if err != nil {
		return nil, err
	}

	// Current still valid.
	if state.Kind != media.KindNoise && state.EndsTS > now && state.CurrentMediaID != nil {
		m, err := sc.store.GetMedia(*state.CurrentMediaID)
		if err != nil {
			return nil, err
		}
		if m != nil {
			seek := now - state.StartedTS
			np := &media.NowPlaying{
				Station: rt.name, Kind: state.Kind, Path: m.Path, MediaID: state.CurrentMediaID,
				StartedTS: state.StartedTS, EndsTS: state.EndsTS, SeekS: seek, SlotEndTS: slotEnd,
			}
			if state.Kind == media.KindSong && active && seek <= 0.25 {
				overlay, err := sc.tryOverlay(rt, state, entry)
				if err != nil {
					return nil, err
				}
				if overlay != nil {
					np.Overlay = overlay
				}
				if err := sc.store.SaveState(state); err != nil {
					return nil, err
				}
			}
			return np, nil
		}
		// Media lookup failure: skip it, clear the queue, fall through to advance.
		state.Queue = nil
		state.QueueIndex = 0
	}

	return sc.advance(rt, state, entry, now, slotEnd, active)
}

func lowerKey(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
