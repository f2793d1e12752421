package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempToml(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "station.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadStationAppliesLegacySynonyms(t *testing.T) {
	path := writeTempToml(t, `
name = "KFAN"
freq = 101.5
idents_dir = "/media/idents"
commercials_dir = "/media/ads"
ident_pad_s = 2.0
ident_duck = 0.3
ident_ramp_s = 1.5

[schedule.monday.9]
tags = ["morning", "talk"]
interstitials = "/media/overlays/morning"
interstitials_probability = 0.4
`)

	st, err := LoadStation(path)
	require.NoError(t, err)
	require.Equal(t, "KFAN", st.Name)
	require.Equal(t, 101.5, st.Freq)
	require.Equal(t, 2.0, st.OverlayPadS)
	require.Equal(t, 0.3, st.OverlayDuck)
	require.Equal(t, 1.5, st.OverlayRampS)

	entry := st.Schedule.Lookup("monday", 9)
	require.Equal(t, []string{"morning", "talk"}, entry.Tags)
	require.Equal(t, "/media/overlays/morning", entry.OverlaysDir)
	require.Equal(t, 0.4, entry.OverlaysProbability)
}

func TestLoadStationPrefersModernKeysOverLegacy(t *testing.T) {
	path := writeTempToml(t, `
name = "KFAN"
freq = 101.5
overlay_pad_s = 5.0
ident_pad_s = 1.0
`)

	st, err := LoadStation(path)
	require.NoError(t, err)
	require.Equal(t, 5.0, st.OverlayPadS)
}

func TestLoadStationRejectsMissingFreqOrName(t *testing.T) {
	path := writeTempToml(t, `name = "KFAN"`)
	_, err := LoadStation(path)
	require.Error(t, err)

	path = writeTempToml(t, `freq = 101.5`)
	_, err = LoadStation(path)
	require.Error(t, err)
}

func TestLoadStationAcceptsSingleStringTag(t *testing.T) {
	path := writeTempToml(t, `
name = "KFAN"
freq = 101.5

[schedule.friday.22]
tags = "late_night"
`)
	st, err := LoadStation(path)
	require.NoError(t, err)
	entry := st.Schedule.Lookup("friday", 22)
	require.Equal(t, []string{"late_night"}, entry.Tags)
}

func TestLoadStationRejectsInvalidScheduleHour(t *testing.T) {
	path := writeTempToml(t, `
name = "KFAN"
freq = 101.5

[schedule.friday.25]
tags = "bad"
`)
	_, err := LoadStation(path)
	require.Error(t, err)
}

func TestScheduleLookupReturnsEmptyEntryWhenAbsent(t *testing.T) {
	path := writeTempToml(t, `
name = "KFAN"
freq = 101.5
`)
	st, err := LoadStation(path)
	require.NoError(t, err)
	entry := st.Schedule.Lookup("monday", 3)
	require.True(t, entry.IsEmpty())
}
