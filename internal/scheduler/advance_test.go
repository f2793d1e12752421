package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/radiodial/station/internal/media"
)

func TestAdvanceQueuePlaysNextItemAndMovesCursor(t *testing.T) {
	sc, st, rt := newSchedulerWithStation(t, baseStation("KFAN"))
	songID := seedMedia(t, st, media.Media{Path: "/music/rock/a.mp3", Kind: media.KindSong, Tag: "rock", DurationS: 100})
	state := &media.StationState{StationID: rt.id, Queue: []int64{songID}, QueueIndex: 0}

	np, ok, err := sc.advanceQueue(rt, state, media.ScheduleEntry{}, monday10, monday10+3600, false)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, songID, *np.MediaID)
	require.Equal(t, 1, state.QueueIndex)
	require.Equal(t, monday10+100, state.EndsTS)
}

func TestAdvanceQueueFallsThroughWhenMediaMissing(t *testing.T) {
	sc, _, rt := newSchedulerWithStation(t, baseStation("KFAN"))
	state := &media.StationState{StationID: rt.id, Queue: []int64{999}, QueueIndex: 0}

	np, ok, err := sc.advanceQueue(rt, state, media.ScheduleEntry{}, monday10, monday10+3600, false)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, np)
	require.Nil(t, state.Queue)
	require.Equal(t, 0, state.QueueIndex)
}

func TestAdvanceQueueNoOpOnEmptyQueue(t *testing.T) {
	sc, _, rt := newSchedulerWithStation(t, baseStation("KFAN"))
	state := &media.StationState{StationID: rt.id}

	np, ok, err := sc.advanceQueue(rt, state, media.ScheduleEntry{}, monday10, monday10+3600, false)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, np)
}

func TestAdvanceTopOfHourFiresOncePerHourSlot(t *testing.T) {
	cfg := baseStation("KFAN")
	cfg.TopOfTheHourDir = "/media/toth/"
	sc, st, rt := newSchedulerWithStation(t, cfg)
	seedMedia(t, st, media.Media{Path: "/media/toth/news.mp3", Kind: media.KindTopOfHour, DurationS: 60})

	state := &media.StationState{StationID: rt.id}
	np, ok, err := sc.advanceTopOfHour(rt, state, monday10, monday10+3600)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, media.KindTopOfHour, np.Kind)
	require.Equal(t, monday10, state.LastTothSlotTS)

	_, ok, err = sc.advanceTopOfHour(rt, state, monday10+10, monday10+3600)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAdvanceTopOfHourNoOpWhenDirUnset(t *testing.T) {
	sc, _, rt := newSchedulerWithStation(t, baseStation("KFAN"))
	state := &media.StationState{StationID: rt.id}
	_, ok, err := sc.advanceTopOfHour(rt, state, monday10, monday10+3600)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAdvanceBreakBuildsQueueAndClearsPendingFlag(t *testing.T) {
	cfg := baseStation("KFAN")
	cfg.BreakLengthS = 60
	sc, st, rt := newSchedulerWithStation(t, cfg)
	seedMedia(t, st, media.Media{Path: "/media/idents/jingle.mp3", Kind: media.KindIdent, DurationS: 5})
	seedMedia(t, st, media.Media{Path: "/media/commercials/a.mp3", Kind: media.KindCommercial, DurationS: 30})
	seedMedia(t, st, media.Media{Path: "/media/commercials/b.mp3", Kind: media.KindCommercial, DurationS: 30})

	state := &media.StationState{StationID: rt.id, PendingBreak: true}
	np, ok, err := sc.advanceBreak(rt, state, monday10, monday10+3600)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, np)
	require.False(t, state.PendingBreak)
	require.True(t, state.ForceIdentNext)
	require.Equal(t, monday10, state.LastBreakTS)
}

func TestAdvanceBreakNoOpWhenNoBreakPending(t *testing.T) {
	sc, _, rt := newSchedulerWithStation(t, baseStation("KFAN"))
	state := &media.StationState{StationID: rt.id}
	_, ok, err := sc.advanceBreak(rt, state, monday10, monday10+3600)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAdvanceBreakClearsPendingWhenNothingToPlay(t *testing.T) {
	cfg := baseStation("KFAN")
	cfg.BreakLengthS = 60
	sc, _, rt := newSchedulerWithStation(t, cfg)
	state := &media.StationState{StationID: rt.id, PendingBreak: true}

	_, ok, err := sc.advanceBreak(rt, state, monday10, monday10+3600)
	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, state.PendingBreak)
}

func TestAdvanceSongPicksSongAndQueuesPeriodicIdent(t *testing.T) {
	cfg := baseStation("KFAN")
	cfg.IdentFrequencyS = 10
	sc, st, rt := newSchedulerWithStation(t, cfg)
	seedMedia(t, st, media.Media{Path: "/music/rock/a.mp3", Kind: media.KindSong, Tag: "rock", DurationS: 100})
	identID := seedMedia(t, st, media.Media{Path: "/media/idents/jingle.mp3", Kind: media.KindIdent, DurationS: 5})

	state := &media.StationState{StationID: rt.id, LastIdentTS: 0}
	entry := media.ScheduleEntry{Tags: []string{"rock"}}
	np, ok, err := sc.advanceSong(rt, state, entry, monday10, monday10+3600, false)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, media.KindSong, np.Kind)
	require.Equal(t, []int64{identID}, state.Queue)
	require.Equal(t, monday10, state.LastIdentTS)
}

func TestAdvanceSongSkipsIdentWhenNotYetDue(t *testing.T) {
	cfg := baseStation("KFAN")
	cfg.IdentFrequencyS = 600
	sc, st, rt := newSchedulerWithStation(t, cfg)
	seedMedia(t, st, media.Media{Path: "/music/rock/a.mp3", Kind: media.KindSong, Tag: "rock", DurationS: 100})
	seedMedia(t, st, media.Media{Path: "/media/idents/jingle.mp3", Kind: media.KindIdent, DurationS: 5})

	state := &media.StationState{StationID: rt.id, LastIdentTS: monday10 - 10}
	entry := media.ScheduleEntry{Tags: []string{"rock"}}
	_, ok, err := sc.advanceSong(rt, state, entry, monday10, monday10+3600, false)
	require.NoError(t, err)
	require.True(t, ok)
	require.Nil(t, state.Queue)
}

func TestAdvanceSongNoOpWhenNoSongFits(t *testing.T) {
	sc, _, rt := newSchedulerWithStation(t, baseStation("KFAN"))
	entry := media.ScheduleEntry{Tags: []string{"rock"}}
	_, ok, err := sc.advanceSong(rt, &media.StationState{StationID: rt.id}, entry, monday10, monday10+3600, false)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAdvanceFillerPlaysCommercialThenFallsBackToNoise(t *testing.T) {
	sc, st, rt := newSchedulerWithStation(t, baseStation("KFAN"))
	seedMedia(t, st, media.Media{Path: "/media/commercials/a.mp3", Kind: media.KindCommercial, DurationS: 30})

	state := &media.StationState{StationID: rt.id}
	np, err := sc.advanceFiller(rt, state, monday10, monday10+3600)
	require.NoError(t, err)
	require.Equal(t, media.KindCommercial, np.Kind)

	// A separate station backed by its own empty store has no idents or
	// commercials at all, so filler falls back to noise until the slot end.
	sc2, _, rt2 := newSchedulerWithStation(t, baseStation("KXYZ"))
	state2 := &media.StationState{StationID: rt2.id}
	np2, err := sc2.advanceFiller(rt2, state2, monday10, monday10+3600)
	require.NoError(t, err)
	require.Equal(t, media.KindNoise, np2.Kind)
	require.Nil(t, state2.CurrentMediaID)
	require.Equal(t, monday10+3600, state2.EndsTS)
}
