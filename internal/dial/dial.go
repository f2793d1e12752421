// Package dial implements the frequency tuning surface: clamped stepping,
// nearest-station lookup by midpoint, and the signal-strength gain curve
// that drives the mixer's music/noise balance.
package dial

import (
	"math"
	"sort"
	"sync"

	"github.com/radiodial/station/internal/media"
)

// Config holds the tuning parameters loaded from runtime config.
type Config struct {
	FreqMin    float64
	FreqMax    float64
	Step       float64
	LockWindow float64
	FadeWindow float64
}

// indexedStation pairs a station with its original registration order, used
// to break exact midpoint ties.
type indexedStation struct {
	media.Station
	index int
}

// Dial holds the tuned frequency and the currently resolved station. Every
// read and write of (freq, stationName, baseMusicVol) happens under mu.
type Dial struct {
	cfg Config

	mu           sync.Mutex
	freq         float64
	stationName  string
	baseMusicVol int

	stations []indexedStation // sorted by Freq ascending
}

// New creates a Dial parked at freq_min with the given stations registered
// in their load order (used for tie-breaking, not for the sort itself).
func New(cfg Config, stations []media.Station) *Dial {
	d := &Dial{cfg: cfg, freq: cfg.FreqMin}
	d.stations = make([]indexedStation, len(stations))
	for i, st := range stations {
		d.stations[i] = indexedStation{Station: st, index: i}
	}
	sort.Slice(d.stations, func(i, j int) bool { return d.stations[i].Freq < d.stations[j].Freq })
	d.resolveLocked()
	return d
}

// Snapshot is a consistent read of the dial's current state.
type Snapshot struct {
	Freq         float64
	StationName  string
	BaseMusicVol int
}

// Read returns a consistent snapshot of the dial state.
func (d *Dial) Read() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Snapshot{Freq: d.freq, StationName: d.stationName, BaseMusicVol: d.baseMusicVol}
}

// Tune moves the dial by delta MHz, clamping to [freq_min, freq_max] and
// rounding to one decimal. It returns the resulting snapshot and whether the
// nearest station changed, so the caller knows whether to re-resolve
// programming for the new station.
func (d *Dial) Tune(delta float64) (snap Snapshot, stationChanged bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	prevStation := d.stationName
	d.freq = clampFreq(d.freq+delta, d.cfg.FreqMin, d.cfg.FreqMax)
	d.resolveLocked()
	return Snapshot{Freq: d.freq, StationName: d.stationName, BaseMusicVol: d.baseMusicVol}, d.stationName != prevStation
}

// StationFrequency returns the configured frequency of the named station,
// for callers (e.g. the status API) that need to translate "tune to this
// station" into a Tune(delta) call without a dedicated jump method — the
// dial's only mutating entry point is Tune, so both button input and the
// API go through the same delta-based path.
func (d *Dial) StationFrequency(name string) (freq float64, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, st := range d.stations {
		if st.Name == name {
			return st.Freq, true
		}
	}
	return 0, false
}

// SignalStrengthAt reports the lock/fade-window gain (0..1) that a station
// at stationFreq has when the dial is at freq, for the status API's
// per-station signal_strength field.
func (d *Dial) SignalStrengthAt(freq, stationFreq float64) float64 {
	return gain(math.Abs(freq-stationFreq), d.cfg.LockWindow, d.cfg.FadeWindow)
}

// resolveLocked recomputes stationName and baseMusicVol from freq. Caller
// must hold mu.
func (d *Dial) resolveLocked() {
	if len(d.stations) == 0 {
		d.stationName = ""
		d.baseMusicVol = 0
		return
	}

	nearest := nearestStation(d.stations, d.freq)
	d.stationName = nearest.Name
	delta := math.Abs(d.freq - nearest.Freq)
	d.baseMusicVol = int(math.Round(100 * gain(delta, d.cfg.LockWindow, d.cfg.FadeWindow)))
}

// nearestStation finds the station whose interval (bounded by midpoints,
// extending to the clamp bounds at the ends) contains freq. Exact midpoint
// ties break toward the higher-indexed station.
func nearestStation(sorted []indexedStation, freq float64) indexedStation {
	best := sorted[0]
	bestDelta := math.Abs(freq - best.Freq)
	for _, st := range sorted[1:] {
		delta := math.Abs(freq - st.Freq)
		if delta < bestDelta || (delta == bestDelta && st.index > best.index) {
			best, bestDelta = st, delta
		}
	}
	return best
}

// gain is the signal-strength curve: full strength within lock_window,
// linearly fading to zero over the next fade_window.
func gain(delta, lockWindow, fadeWindow float64) float64 {
	switch {
	case delta <= lockWindow:
		return 1.0
	case fadeWindow > 0 && delta <= lockWindow+fadeWindow:
		return 1.0 - (delta-lockWindow)/fadeWindow
	default:
		return 0.0
	}
}

func clampFreq(freq, min, max float64) float64 {
	if freq < min {
		freq = min
	}
	if freq > max {
		freq = max
	}
	return math.Round(freq*10) / 10
}
