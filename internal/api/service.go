// Package api exposes the read-only status surface: station listing,
// current status, and tuning, split into a gin handler layer and a
// service layer holding the logic.
package api

import (
	"fmt"

	"github.com/radiodial/station/internal/app"
	"github.com/radiodial/station/internal/media"
)

// Service implements the business logic behind the status API, translating
// app/dial/scheduler state into response-ready shapes.
type Service struct {
	app *app.App
}

func NewService(a *app.App) *Service {
	return &Service{app: a}
}

// StationSummary is one entry of GET /stations.
type StationSummary struct {
	Name      string  `json:"name"`
	Frequency float64 `json:"frequency"`
	// SignalStrength is the lock/fade-window gain the dial would apply
	// to this station at its current frequency, useful for a future
	// frequency-sweep UI without requiring the dial to actually be
	// tuned there.
	SignalStrength float64 `json:"signal_strength"`
}

// Stations lists every configured station sorted by frequency.
func (s *Service) Stations() []StationSummary {
	stations := s.app.Scheduler.Stations()
	out := make([]StationSummary, 0, len(stations))
	snap := s.app.Dial.Read()
	for _, st := range stations {
		out = append(out, StationSummary{
			Name:           st.Name,
			Frequency:      st.Freq,
			SignalStrength: s.app.Dial.SignalStrengthAt(snap.Freq, st.Freq),
		})
	}
	sortByFrequency(out)
	return out
}

// ProgramItem is the now_playing shape for non-noise items.
type ProgramItem struct {
	Type      string  `json:"type"`
	Artist    string  `json:"artist,omitempty"`
	Title     string  `json:"title,omitempty"`
	StartedAt float64 `json:"started_at"`
	EndsAt    float64 `json:"ends_at"`
	DurationS float64 `json:"duration_s"`
	ElapsedS  float64 `json:"elapsed_s"`
}

// Status is the response shape of GET /status.
type Status struct {
	Frequency  float64 `json:"frequency"`
	Station    string  `json:"station"`
	Tuned      bool    `json:"tuned"`
	NowPlaying any     `json:"now_playing"`
}

// ErrUnknownStation is returned when a requested station name has no match.
var ErrUnknownStation = fmt.Errorf("unknown station")

// Status builds the status payload. If station is empty, the dial's own
// tuned station and frequency are reported; otherwise the named station's
// own frequency and programming are reported regardless of what the dial is
// tuned to.
func (s *Service) Status(station string) (Status, error) {
	if station == "" {
		snap := s.app.Dial.Read()
		np, err := s.app.NowPlaying(snap.StationName)
		if err != nil {
			return Status{}, err
		}
		return Status{
			Frequency:  snap.Freq,
			Station:    snap.StationName,
			Tuned:      snap.StationName != "" && snap.BaseMusicVol > 0,
			NowPlaying: s.nowPlayingJSON(np),
		}, nil
	}

	var freq float64
	found := false
	for _, st := range s.app.Scheduler.Stations() {
		if st.Name == station {
			freq = st.Freq
			found = true
			break
		}
	}
	if !found {
		return Status{}, ErrUnknownStation
	}

	np, err := s.app.NowPlaying(station)
	if err != nil {
		return Status{}, err
	}
	snap := s.app.Dial.Read()
	return Status{
		Frequency:  freq,
		Station:    station,
		Tuned:      snap.StationName == station && snap.BaseMusicVol > 0,
		NowPlaying: s.nowPlayingJSON(np),
	}, nil
}

// nowPlayingJSON resolves np into its response shape: null when the
// station has no active programming, {"type":"noise"} for
// the noise bed, and a full ProgramItem (with artist/title looked up from
// the catalog by media id) for anything else.
func (s *Service) nowPlayingJSON(np *media.NowPlaying) any {
	if np == nil {
		return nil
	}
	if np.Kind == media.KindNoise {
		return map[string]string{"type": "noise"}
	}

	item := ProgramItem{
		Type:      string(np.Kind),
		StartedAt: np.StartedTS,
		EndsAt:    np.EndsTS,
		DurationS: np.EndsTS - np.StartedTS,
		ElapsedS:  np.SeekS,
	}
	if np.MediaID != nil {
		if m, err := s.app.Store.GetMedia(*np.MediaID); err == nil && m != nil {
			item.Artist = m.Artist
			item.Title = m.Title
		}
	}
	return item
}

// TuneRequest mirrors POST /tune's mutually-exclusive query parameters.
type TuneRequest struct {
	Station   string
	Frequency *float64
}

// ErrAmbiguousTune is returned when both or neither tune parameter is set.
var ErrAmbiguousTune = fmt.Errorf("exactly one of station or frequency is required")

// Tune mutates the dial per req and returns the resulting status.
func (s *Service) Tune(req TuneRequest) (Status, error) {
	hasStation := req.Station != ""
	hasFreq := req.Frequency != nil
	if hasStation == hasFreq {
		return Status{}, ErrAmbiguousTune
	}

	if hasStation {
		if _, ok := s.app.TuneToStation(req.Station); !ok {
			return Status{}, ErrUnknownStation
		}
		return s.Status("")
	}

	s.app.TuneToFrequency(*req.Frequency)
	return s.Status("")
}

func sortByFrequency(stations []StationSummary) {
	for i := 1; i < len(stations); i++ {
		for j := i; j > 0 && stations[j].Frequency < stations[j-1].Frequency; j-- {
			stations[j], stations[j-1] = stations[j-1], stations[j]
		}
	}
}
