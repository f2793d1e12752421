// Package app wires the scheduler, dial, and mixer behind a fixed-interval
// main loop, and owns the store handle's lifetime.
package app

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/radiodial/station/internal/clock"
	"github.com/radiodial/station/internal/config"
	"github.com/radiodial/station/internal/dial"
	"github.com/radiodial/station/internal/media"
	"github.com/radiodial/station/internal/mixer"
	"github.com/radiodial/station/internal/scheduler"
	"github.com/radiodial/station/internal/store"
)

// App owns every long-lived component of the radio daemon.
type App struct {
	Store     *store.Store
	Scheduler *scheduler.Scheduler
	Dial      *dial.Dial
	Mixer     *mixer.Mixer
	clock     clock.Clock
	tickS     float64
}

// New assembles the app from runtime config, loaded station configs, and an
// audio backend. The backend is accepted as an interface so tests can
// supply a fake without touching real audio hardware.
func New(rt *config.Runtime, stations []*config.Station, backend mixer.AudioBackend) (*App, error) {
	st, err := store.Open(rt.DBPath, store.DefaultConfig())
	if err != nil {
		return nil, err
	}

	clk := clock.SystemClock{}
	runEntropy := rand.Uint64()

	sc, err := scheduler.New(st, clk, time.Local, runEntropy, stations)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	d := dial.New(dial.Config{
		FreqMin:    rt.FreqMin,
		FreqMax:    rt.FreqMax,
		Step:       rt.Step,
		LockWindow: rt.LockWindow,
		FadeWindow: rt.FadeWindow,
	}, sc.Stations())

	mx := mixer.New(backend, clk, rt.MasterVol)
	if err := backend.LoadNoise(rt.NoiseFile); err != nil {
		slog.Warn("app: load noise bed failed", "file", rt.NoiseFile, "error", err)
	} else if err := backend.PlayNoise(); err != nil {
		slog.Warn("app: play noise bed failed", "error", err)
	}

	return &App{Store: st, Scheduler: sc, Dial: d, Mixer: mx, clock: clk, tickS: rt.TickS}, nil
}

// Close tears down owned resources: stops the mixer and closes the store.
func (a *App) Close() error {
	a.Mixer.Stop()
	return a.Store.Close()
}

// Run drives the fixed-interval main loop until ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	interval := time.Duration(a.tickS * float64(time.Second))
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("app: main loop started", "tick", interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("app: main loop stopping")
			return
		case <-ticker.C:
			a.tick()
		}
	}
}

func (a *App) tick() {
	now := a.clock.Now()

	a.Scheduler.BeginTick()
	if err := a.Scheduler.TickAll(now); err != nil {
		slog.Error("app: tick_all failed", "error", err)
	}

	snap := a.Dial.Read()
	a.Mixer.SetMix(snap.BaseMusicVol)

	if snap.StationName == "" || snap.BaseMusicVol <= 0 {
		return
	}

	np, err := a.Scheduler.EnsureStationCurrent(snap.StationName, now, true)
	if err != nil {
		slog.Error("app: ensure_station_current failed", "station", snap.StationName, "error", err)
		return
	}
	a.Mixer.Play(np)
}

// Tune moves the dial and, if the resolved station changed, immediately
// resolves its programming so the mixer doesn't wait for the next tick.
func (a *App) Tune(delta float64) dial.Snapshot {
	snap, changed := a.Dial.Tune(delta)
	a.reactToTune(snap, changed)
	return snap
}

// TuneToFrequency mutates the dial to an absolute frequency by translating
// it into the same tune(delta) path button input uses, for the status
// API's POST /tune?frequency=.
func (a *App) TuneToFrequency(freq float64) dial.Snapshot {
	current := a.Dial.Read().Freq
	return a.Tune(freq - current)
}

// TuneToStation mutates the dial to a named station's frequency via
// tune(delta), for the status API's POST /tune?station=.
func (a *App) TuneToStation(name string) (dial.Snapshot, bool) {
	freq, ok := a.Dial.StationFrequency(name)
	if !ok {
		return dial.Snapshot{}, false
	}
	current := a.Dial.Read().Freq
	return a.Tune(freq - current), true
}

func (a *App) reactToTune(snap dial.Snapshot, changed bool) {
	a.Mixer.SetMix(snap.BaseMusicVol)
	if !changed || snap.StationName == "" || snap.BaseMusicVol <= 0 {
		return
	}
	now := a.clock.Now()
	np, err := a.Scheduler.EnsureStationCurrent(snap.StationName, now, true)
	if err != nil {
		slog.Error("app: ensure_station_current on tune failed", "station", snap.StationName, "error", err)
		return
	}
	a.Mixer.Play(np)
}

// NowPlaying exposes the current programming snapshot for the status API.
// It passes active=false, so no overlay is emitted and no overlay flag is
// consumed; the station's state is still advanced (and saved) if its
// current item has ended or the slot is noise-only.
func (a *App) NowPlaying(stationName string) (*media.NowPlaying, error) {
	if stationName == "" {
		return nil, nil
	}
	return a.Scheduler.EnsureStationCurrent(stationName, a.clock.Now(), false)
}
