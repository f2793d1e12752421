package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/radiodial/station/internal/media"
)

// scheduleEntryFile is the raw TOML shape of one [schedule.<weekday>.<hour>]
// table, including legacy synonyms for the overlay keys.
type scheduleEntryFile struct {
	Tags                     any      `toml:"tags"`
	Overlays                 string   `toml:"overlays"`
	Interstitials            string   `toml:"interstitials"`
	OverlaysProbability      *float64 `toml:"overlays_probability"`
	InterstitialsProbability *float64 `toml:"interstitials_probability"`
}

// stationFile is the raw TOML shape of a station config file. Pointer fields
// distinguish "absent" from "explicitly zero" so legacy synonyms can be
// coalesced correctly.
type stationFile struct {
	Name           string `toml:"name"`
	Freq           float64 `toml:"freq"`
	IdentsDir      string `toml:"idents_dir"`
	CommercialsDir string `toml:"commercials_dir"`

	BreakFrequencyS *float64 `toml:"break_frequency_s"`
	BreakFrequency  *float64 `toml:"break_frequency"`
	BreakLengthS    *float64 `toml:"break_length_s"`
	BreakLength     *float64 `toml:"break_length"`
	IdentFrequencyS *float64 `toml:"ident_frequency_s"`
	IdentFrequency  *float64 `toml:"ident_frequency"`

	OverlayPadS  *float64 `toml:"overlay_pad_s"`
	IdentPadS    *float64 `toml:"ident_pad_s"`
	OverlayDuck  *float64 `toml:"overlay_duck"`
	IdentDuck    *float64 `toml:"ident_duck"`
	OverlayRampS *float64 `toml:"overlay_ramp_s"`
	IdentRampS   *float64 `toml:"ident_ramp_s"`

	TopOfTheHour string `toml:"top_of_the_hour"`

	// Schedule maps weekday -> hour-as-string -> entry. TOML table keys are
	// always strings; hours are parsed to int on load.
	Schedule map[string]map[string]scheduleEntryFile `toml:"schedule"`
}

// coalesce returns the first non-nil pointer's value, or fallback.
func coalesce(fallback float64, ptrs ...*float64) float64 {
	for _, p := range ptrs {
		if p != nil {
			return *p
		}
	}
	return fallback
}

// Station is the decoded, defaulted station configuration.
type Station struct {
	media.Station
	Schedule media.Schedule
}

// LoadStation reads and decodes one station TOML file.
func LoadStation(path string) (*Station, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read station config %q: %w", path, err)
	}

	var sf stationFile
	if err := toml.Unmarshal(raw, &sf); err != nil {
		return nil, fmt.Errorf("config: parse station config %q: %w", path, err)
	}

	if sf.Freq <= 0 {
		return nil, fmt.Errorf("config: station %q: freq must be > 0", path)
	}
	if sf.Name == "" {
		return nil, fmt.Errorf("config: station %q: name is required", path)
	}

	st := Station{
		Station: media.Station{
			Name:            sf.Name,
			Freq:            sf.Freq,
			IdentsDir:       sf.IdentsDir,
			CommercialsDir:  sf.CommercialsDir,
			BreakFrequencyS: coalesce(0, sf.BreakFrequencyS, sf.BreakFrequency),
			BreakLengthS:    coalesce(0, sf.BreakLengthS, sf.BreakLength),
			IdentFrequencyS: coalesce(0, sf.IdentFrequencyS, sf.IdentFrequency),
			OverlayPadS:     coalesce(0, sf.OverlayPadS, sf.IdentPadS),
			OverlayDuck:     clamp01(coalesce(0, sf.OverlayDuck, sf.IdentDuck)),
			OverlayRampS:    coalesce(0, sf.OverlayRampS, sf.IdentRampS),
			TopOfTheHourDir: sf.TopOfTheHour,
		},
		Schedule: media.Schedule{},
	}

	for weekday, byHour := range sf.Schedule {
		weekday = strings.ToLower(weekday)
		entries := make(map[int]media.ScheduleEntry, len(byHour))
		for hourStr, raw := range byHour {
			hour, err := strconv.Atoi(hourStr)
			if err != nil || hour < 0 || hour > 23 {
				return nil, fmt.Errorf("config: station %q: invalid schedule hour %q", path, hourStr)
			}
			entries[hour] = toScheduleEntry(raw)
		}
		st.Schedule[weekday] = entries
	}

	return &st, nil
}

func toScheduleEntry(raw scheduleEntryFile) media.ScheduleEntry {
	entry := media.ScheduleEntry{
		Tags:        parseTags(raw.Tags),
		OverlaysDir: firstNonEmpty(raw.Overlays, raw.Interstitials),
	}
	if raw.OverlaysProbability != nil {
		entry.OverlaysProbability = clamp01(*raw.OverlaysProbability)
	} else if raw.InterstitialsProbability != nil {
		entry.OverlaysProbability = clamp01(*raw.InterstitialsProbability)
	}
	return entry
}

// parseTags accepts either a single string or an array of strings for the
// `tags` key.
func parseTags(v any) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
