package mixer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/radiodial/station/internal/clock"
	"github.com/radiodial/station/internal/media"
)

// TestMain verifies, once all of the package's tests have run, that no
// goroutine started by a duck ramp, overlay timer, or seek retry is still
// running, the same way the pack's concurrency-heavy audio packages guard
// against leaking background work.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func mediaID(id int64) *int64 { return &id }

func TestPlayLoadsAndStartsMusicOnce(t *testing.T) {
	be := newFakeBackend()
	m := New(be, clock.NewFake(1000), 80)

	np := &media.NowPlaying{Station: "KFAN", Kind: media.KindSong, Path: "/music/a.mp3", MediaID: mediaID(1), StartedTS: 1000, EndsTS: 1100}
	m.Play(np)

	snap := be.snapshot()
	require.Equal(t, "/music/a.mp3", snap.musicPath)
	require.True(t, snap.musicPlaying)
	require.Equal(t, 1, snap.loadMusicN)
}

func TestPlaySameInstanceIsNoOp(t *testing.T) {
	be := newFakeBackend()
	m := New(be, clock.NewFake(1000), 80)

	np := &media.NowPlaying{Station: "KFAN", Kind: media.KindSong, Path: "/music/a.mp3", MediaID: mediaID(1), StartedTS: 1000, EndsTS: 1100}
	m.Play(np)
	m.Play(np)

	require.Equal(t, 1, be.snapshot().loadMusicN)
}

func TestPlayDifferentMediaIDReloads(t *testing.T) {
	be := newFakeBackend()
	m := New(be, clock.NewFake(1000), 80)

	m.Play(&media.NowPlaying{Station: "KFAN", Kind: media.KindSong, Path: "/music/a.mp3", MediaID: mediaID(1), StartedTS: 1000, EndsTS: 1100})
	m.Play(&media.NowPlaying{Station: "KFAN", Kind: media.KindSong, Path: "/music/b.mp3", MediaID: mediaID(2), StartedTS: 1100, EndsTS: 1200})

	require.Equal(t, 2, be.snapshot().loadMusicN)
}

func TestPlayNoOpsForNoise(t *testing.T) {
	be := newFakeBackend()
	m := New(be, clock.NewFake(1000), 80)

	m.Play(&media.NowPlaying{Station: "KFAN", Kind: media.KindNoise, StartedTS: 1000, EndsTS: 1100})
	require.Equal(t, 0, be.snapshot().loadMusicN)

	m.Play(nil)
	require.Equal(t, 0, be.snapshot().loadMusicN)
}

func TestSetMixScalesNoiseAndMusicVolumeByMaster(t *testing.T) {
	be := newFakeBackend()
	m := New(be, clock.NewFake(1000), 50)

	m.SetMix(100)
	snap := be.snapshot()
	require.Equal(t, 0, snap.noiseVol)
	require.Equal(t, 50, snap.musicVol)

	m.SetMix(0)
	snap = be.snapshot()
	require.Equal(t, 50, snap.noiseVol)
	require.Equal(t, 0, snap.musicVol)
}

func TestStopClearsLoadedProgramAndStopsStreams(t *testing.T) {
	be := newFakeBackend()
	m := New(be, clock.NewFake(1000), 80)
	m.Play(&media.NowPlaying{Station: "KFAN", Kind: media.KindSong, Path: "/music/a.mp3", MediaID: mediaID(1), StartedTS: 1000, EndsTS: 1100})

	m.Stop()

	snap := be.snapshot()
	require.False(t, snap.musicPlaying)
	require.False(t, snap.overlayOn)

	// A subsequent Play of the same item is no longer a same-instance no-op.
	m.Play(&media.NowPlaying{Station: "KFAN", Kind: media.KindSong, Path: "/music/a.mp3", MediaID: mediaID(1), StartedTS: 1000, EndsTS: 1100})
	require.Equal(t, 2, be.snapshot().loadMusicN)
}
