package mixer

import (
	"log/slog"
	"time"

	"github.com/radiodial/station/internal/media"
)

// scheduleOverlay fires at wall-clock started_ts+at_s (immediately if that
// moment already passed), then verifies we're still on the same song
// instance before ducking and loading the overlay stream.
func (m *Mixer) scheduleOverlay(gen uint64, np *media.NowPlaying) {
	fireAt := np.StartedTS + np.Overlay.AtS
	delay := fireAt - m.clock.Now()

	fire := func() { m.fireOverlay(gen, np) }
	if delay <= 0 {
		go fire()
		return
	}
	time.AfterFunc(time.Duration(delay*float64(time.Second)), fire)
}

func (m *Mixer) fireOverlay(gen uint64, np *media.NowPlaying) {
	m.mu.Lock()
	current := m.loaded
	stale := m.overlayGen != gen
	m.mu.Unlock()

	if stale || !current.loaded || current.station != np.Station || abs(current.startedTS-np.StartedTS) > sameInstanceTol {
		return
	}

	m.duck.To(np.Overlay.Duck, np.Overlay.RampS)

	if err := m.backend.LoadOverlay(np.Overlay.Path); err != nil {
		slog.Warn("mixer: load overlay failed", "path", np.Overlay.Path, "error", err)
		m.duck.To(1.0, np.Overlay.RampS)
		return
	}

	done := m.backend.OverlayDone()
	if err := m.backend.PlayOverlay(); err != nil {
		slog.Warn("mixer: play overlay failed", "path", np.Overlay.Path, "error", err)
		m.duck.To(1.0, np.Overlay.RampS)
		return
	}

	go func() {
		<-done
		m.mu.Lock()
		stale := m.overlayGen != gen
		m.mu.Unlock()
		if stale {
			return
		}
		m.duck.To(1.0, np.Overlay.RampS)
	}()
}
