package api

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/radiodial/station/internal/app"
	"github.com/radiodial/station/internal/config"
	"github.com/radiodial/station/internal/media"
	"github.com/radiodial/station/internal/mixer"
)

type nopBackend struct{}

func (nopBackend) LoadMusic(path string) error    { return nil }
func (nopBackend) LoadNoise(path string) error    { return nil }
func (nopBackend) LoadOverlay(path string) error  { return nil }
func (nopBackend) PlayMusic() error               { return nil }
func (nopBackend) PlayNoise() error               { return nil }
func (nopBackend) PlayOverlay() error             { return nil }
func (nopBackend) StopMusic() error               { return nil }
func (nopBackend) StopOverlay() error             { return nil }
func (nopBackend) SeekMusic(seconds float64) error { return nil }
func (nopBackend) SetMusicVolume(pct int) error    { return nil }
func (nopBackend) SetNoiseVolume(pct int) error    { return nil }
func (nopBackend) SetOverlayVolume(pct int) error  { return nil }
func (nopBackend) OverlayDone() <-chan struct{}    { return make(chan struct{}) }
func (nopBackend) Close() error                    { return nil }

var _ mixer.AudioBackend = nopBackend{}

func newTestService(t *testing.T, stations []*config.Station) *Service {
	t.Helper()
	rt := &config.Runtime{
		DBPath: filepath.Join(t.TempDir(), "radio.db"), NoiseFile: "",
		MasterVol: 80, FreqMin: 90, FreqMax: 108, Step: 0.1,
		LockWindow: 0.3, FadeWindow: 0.5, TickS: 0.25,
	}
	a, err := app.New(rt, stations, nopBackend{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return NewService(a)
}

func TestStationsReturnsSortedByFrequencyWithSignalStrength(t *testing.T) {
	svc := newTestService(t, []*config.Station{
		{Station: media.Station{Name: "KXYZ", Freq: 101.0}},
		{Station: media.Station{Name: "KFAN", Freq: 90.0}},
	})

	stations := svc.Stations()
	require.Len(t, stations, 2)
	require.Equal(t, "KFAN", stations[0].Name)
	require.Equal(t, "KXYZ", stations[1].Name)
	// The dial parks at freq_min=90.0, exactly on KFAN: full signal there,
	// none at KXYZ given the configured lock/fade windows.
	require.Equal(t, 1.0, stations[0].SignalStrength)
	require.Equal(t, 0.0, stations[1].SignalStrength)
}

func TestStatusWithNoStationReportsDialState(t *testing.T) {
	svc := newTestService(t, []*config.Station{
		{Station: media.Station{Name: "KFAN", Freq: 90.0}},
	})

	st, err := svc.Status("")
	require.NoError(t, err)
	require.Equal(t, "KFAN", st.Station)
	require.Equal(t, 90.0, st.Frequency)
	require.True(t, st.Tuned)
}

func TestStatusForUnknownStationErrors(t *testing.T) {
	svc := newTestService(t, []*config.Station{
		{Station: media.Station{Name: "KFAN", Freq: 90.0}},
	})
	_, err := svc.Status("nonexistent")
	require.ErrorIs(t, err, ErrUnknownStation)
}

func TestStatusForNamedStationReportsItsOwnFrequencyRegardlessOfDial(t *testing.T) {
	svc := newTestService(t, []*config.Station{
		{Station: media.Station{Name: "KFAN", Freq: 90.0}},
		{Station: media.Station{Name: "KXYZ", Freq: 101.0}},
	})
	st, err := svc.Status("KXYZ")
	require.NoError(t, err)
	require.Equal(t, "KXYZ", st.Station)
	require.Equal(t, 101.0, st.Frequency)
	require.False(t, st.Tuned) // dial is still parked on KFAN
}

func TestTuneRejectsBothOrNeitherParam(t *testing.T) {
	svc := newTestService(t, []*config.Station{
		{Station: media.Station{Name: "KFAN", Freq: 90.0}},
	})

	_, err := svc.Tune(TuneRequest{})
	require.ErrorIs(t, err, ErrAmbiguousTune)

	freq := 95.0
	_, err = svc.Tune(TuneRequest{Station: "KFAN", Frequency: &freq})
	require.ErrorIs(t, err, ErrAmbiguousTune)
}

func TestTuneByStationNameMovesDialAndReturnsNewStatus(t *testing.T) {
	svc := newTestService(t, []*config.Station{
		{Station: media.Station{Name: "KFAN", Freq: 90.0}},
		{Station: media.Station{Name: "KXYZ", Freq: 101.0}},
	})
	st, err := svc.Tune(TuneRequest{Station: "KXYZ"})
	require.NoError(t, err)
	require.Equal(t, "KXYZ", st.Station)
	require.Equal(t, 101.0, st.Frequency)
}

func TestTuneByUnknownStationErrors(t *testing.T) {
	svc := newTestService(t, []*config.Station{
		{Station: media.Station{Name: "KFAN", Freq: 90.0}},
	})
	_, err := svc.Tune(TuneRequest{Station: "nonexistent"})
	require.ErrorIs(t, err, ErrUnknownStation)
}

func TestTuneByFrequencyMovesDialToAbsoluteTarget(t *testing.T) {
	svc := newTestService(t, []*config.Station{
		{Station: media.Station{Name: "KFAN", Freq: 90.0}},
	})
	freq := 95.5
	st, err := svc.Tune(TuneRequest{Frequency: &freq})
	require.NoError(t, err)
	require.Equal(t, 95.5, st.Frequency)
}

func TestNowPlayingJSONReportsNoiseAndArtistTitle(t *testing.T) {
	svc := newTestService(t, []*config.Station{
		{Station: media.Station{Name: "KFAN", Freq: 90.0}},
	})

	require.Nil(t, svc.nowPlayingJSON(nil))

	noise := svc.nowPlayingJSON(&media.NowPlaying{Kind: media.KindNoise})
	require.Equal(t, map[string]string{"type": "noise"}, noise)

	mediaID, err := svc.app.Store.UpsertMedia(media.Media{Path: "/music/a.mp3", Kind: media.KindSong, Artist: "Artist", Title: "Title", DurationS: 120})
	require.NoError(t, err)
	item := svc.nowPlayingJSON(&media.NowPlaying{
		Kind: media.KindSong, MediaID: &mediaID, StartedTS: 1000, EndsTS: 1120, SeekS: 10,
	}).(ProgramItem)
	require.Equal(t, "Artist", item.Artist)
	require.Equal(t, "Title", item.Title)
	require.Equal(t, 120.0, item.DurationS)
	require.Equal(t, 10.0, item.ElapsedS)
}
