package mixer

import (
	"log/slog"
	"sync"
	"time"

	"github.com/radiodial/station/internal/clock"
	"github.com/radiodial/station/internal/media"
)

const (
	seekRetryTimeout = 2 * time.Second
	seekRetryPoll    = 50 * time.Millisecond
	sameInstanceTol  = 0.25 // seconds
)

// Mixer owns the three audio streams for the currently tuned station and
// applies its program-loading, ducking, and overlay-scheduling rules.
type Mixer struct {
	backend AudioBackend
	clock   clock.Clock

	mu         sync.Mutex
	masterVol  int
	baseVol    int
	duck       *duckRamp
	loaded     loadedProgram
	overlayGen uint64 // bumped on every program load, invalidates stale overlay timers
}

type loadedProgram struct {
	station   string
	kind      media.Kind
	path      string
	mediaID   *int64
	startedTS float64
	loaded    bool
}

// New creates a Mixer bound to backend, with the given initial master
// volume (0-100).
func New(backend AudioBackend, clk clock.Clock, masterVol int) *Mixer {
	m := &Mixer{backend: backend, clock: clk, masterVol: masterVol, baseVol: 0}
	m.duck = newDuckRamp(m.applyMusicVolume)
	return m
}

// SetMix instantaneously sets the music/noise balance from the dial's gain
// computation and recomputes all three stream volumes.
func (m *Mixer) SetMix(baseMusicVol int) {
	m.mu.Lock()
	m.baseVol = clampInt(baseMusicVol, 0, 100)
	noiseVol := scale(float64(100-m.baseVol), float64(m.masterVol))
	m.mu.Unlock()

	if err := m.backend.SetNoiseVolume(noiseVol); err != nil {
		slog.Warn("mixer: set noise volume failed", "error", err)
	}
	m.applyMusicVolume(m.duck.Factor())
}

func (m *Mixer) applyMusicVolume(duckFactor float64) {
	m.mu.Lock()
	vol := scale(float64(m.baseVol)*duckFactor, float64(m.masterVol))
	m.mu.Unlock()
	if err := m.backend.SetMusicVolume(vol); err != nil {
		slog.Warn("mixer: set music volume failed", "error", err)
	}
}

// Play ensures the music stream is playing the requested item at the
// correct position. It is idempotent and no-ops for noise.
func (m *Mixer) Play(np *media.NowPlaying) {
	if np == nil || np.Kind == media.KindNoise {
		return
	}

	m.mu.Lock()
	sameInstance := m.loaded.loaded &&
		m.loaded.station == np.Station &&
		m.loaded.kind == np.Kind &&
		m.loaded.path == np.Path &&
		idsEqual(m.loaded.mediaID, np.MediaID) &&
		abs(m.loaded.startedTS-np.StartedTS) <= sameInstanceTol
	m.mu.Unlock()

	if sameInstance {
		return
	}

	m.mu.Lock()
	m.overlayGen++
	gen := m.overlayGen
	m.loaded = loadedProgram{station: np.Station, kind: np.Kind, path: np.Path, mediaID: np.MediaID, startedTS: np.StartedTS, loaded: true}
	m.mu.Unlock()

	m.duck.To(1.0, 0)

	if err := m.backend.LoadMusic(np.Path); err != nil {
		slog.Warn("mixer: load music failed", "path", np.Path, "error", err)
		return
	}
	if err := m.backend.PlayMusic(); err != nil {
		slog.Warn("mixer: play music failed", "path", np.Path, "error", err)
	}

	if np.SeekS > 0.1 {
		go m.seekWhenReady(gen, np.SeekS, np.EndsTS-np.StartedTS)
	}

	if np.Overlay != nil && np.Kind == media.KindSong {
		m.scheduleOverlay(gen, np)
	}
}

// seekWhenReady retries SeekMusic briefly, since backends may reject a seek
// issued immediately after load.
func (m *Mixer) seekWhenReady(gen uint64, seekS, durationS float64) {
	target := seekS
	if durationS > 1 {
		target = clampFloat(target, 0, durationS-1)
	}

	deadline := time.Now().Add(seekRetryTimeout)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		stale := m.overlayGen != gen
		m.mu.Unlock()
		if stale {
			return
		}
		if err := m.backend.SeekMusic(target); err == nil {
			return
		}
		time.Sleep(seekRetryPoll)
	}
	slog.Warn("mixer: seek-when-ready timed out, starting from 0")
}

// Stop stops music and overlay streams and cancels any pending overlay timer.
func (m *Mixer) Stop() {
	m.mu.Lock()
	m.overlayGen++
	m.loaded = loadedProgram{}
	m.mu.Unlock()

	if err := m.backend.StopMusic(); err != nil {
		slog.Warn("mixer: stop music failed", "error", err)
	}
	if err := m.backend.StopOverlay(); err != nil {
		slog.Warn("mixer: stop overlay failed", "error", err)
	}
	m.duck.To(1.0, 0)
}

func idsEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
