// Package scan walks music and station interstitial directories and
// upserts what it finds into the store: songs under a single music root,
// tagged by directory, plus each station's
// ident/commercial/top-of-hour/overlay directories.
package scan

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"

	"github.com/radiodial/station/internal/config"
	"github.com/radiodial/station/internal/media"
	"github.com/radiodial/station/internal/store"
)

var supportedExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
}

// Counts tallies how many files were seen and successfully upserted for one
// directory walk, mirroring the (seen, scanned) pairs the CLI prints.
type Counts struct {
	Seen    int
	Scanned int
}

// Options configures a full library scan.
type Options struct {
	MusicRoot    string
	StationGlobs []string
	Verbose      bool
}

// Result summarizes a full scan across the music root and every station.
type Result struct {
	Songs    Counts
	Stations map[string]StationResult
}

// StationResult summarizes the interstitial directories scanned for one
// station: idents, commercials, top-of-hour, and every schedule slot's
// overlay directory.
type StationResult struct {
	StationID   int64
	Idents      Counts
	Commercials Counts
	TopOfHour   Counts
	Overlays    map[string]Counts // "weekday:hour" -> counts
}

// Run executes a full scan against st: songs under opts.MusicRoot tagged by
// their immediate parent directory name, then each matched station's
// idents/commercials/top-of-hour/overlay directories.
func Run(st *store.Store, opts Options) (*Result, error) {
	result := &Result{Stations: make(map[string]StationResult)}

	if opts.MusicRoot != "" {
		counts, err := scanSongs(st, opts.MusicRoot, opts.Verbose)
		if err != nil {
			return nil, fmt.Errorf("scan: songs: %w", err)
		}
		result.Songs = counts
	}

	stations, err := loadStationConfigs(opts.StationGlobs)
	if err != nil {
		return nil, err
	}

	for _, cfg := range stations {
		sr, err := scanStation(st, cfg, opts.Verbose)
		if err != nil {
			return nil, fmt.Errorf("scan: station %q: %w", cfg.Name, err)
		}
		result.Stations[cfg.Name] = sr
	}

	return result, nil
}

func loadStationConfigs(globs []string) ([]*config.Station, error) {
	var out []*config.Station
	for _, g := range globs {
		matches, err := filepath.Glob(g)
		if err != nil {
			return nil, fmt.Errorf("scan: invalid station glob %q: %w", g, err)
		}
		if len(matches) == 0 {
			matches = []string{g}
		}
		for _, path := range matches {
			cfg, err := config.LoadStation(path)
			if err != nil {
				return nil, err
			}
			out = append(out, cfg)
		}
	}
	return out, nil
}

// scanSongs walks musicRoot recursively; every song's tag is its immediate
// parent directory name (e.g. music/upbeat/foo.mp3 -> tag "upbeat"), and its
// artist/title default to a "Artist - Title" split of the filename stem.
func scanSongs(st *store.Store, musicRoot string, verbose bool) (Counts, error) {
	info, err := os.Stat(musicRoot)
	if err != nil {
		return Counts{}, fmt.Errorf("scan: access music root %q: %w", musicRoot, err)
	}
	if !info.IsDir() {
		return Counts{}, fmt.Errorf("scan: %q is not a directory", musicRoot)
	}

	var counts Counts
	err = filepath.Walk(musicRoot, func(path string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			slog.Warn("scan: walk error", "path", path, "error", walkErr)
			return nil
		}
		if fi.IsDir() || !supportedExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		counts.Seen++

		artist, title := parseArtistTitle(path)
		if ta, tt, ok := readTagMetadata(path); ok {
			if ta != "" {
				artist = ta
			}
			if tt != "" {
				title = tt
			}
		}
		m := media.Media{
			Path:      path,
			Kind:      media.KindSong,
			Artist:    artist,
			Title:     title,
			Tag:       filepath.Base(filepath.Dir(path)),
			DurationS: probeDuration(path),
			MTime:     float64(fi.ModTime().Unix()),
		}
		id, err := st.UpsertMedia(m)
		if err != nil {
			slog.Warn("scan: upsert song failed", "path", path, "error", err)
			return nil
		}
		counts.Scanned++
		if verbose {
			slog.Info("scan: song", "tag", m.Tag, "path", path, "duration_s", m.DurationS, "id", id)
		}
		return nil
	})
	if err != nil {
		return counts, fmt.Errorf("scan: walk music root %q: %w", musicRoot, err)
	}

	slog.Info("scan: songs complete", "root", musicRoot, "seen", counts.Seen, "scanned", counts.Scanned)
	return counts, nil
}

func scanStation(st *store.Store, cfg *config.Station, verbose bool) (StationResult, error) {
	id, err := st.SyncStation(cfg.Station)
	if err != nil {
		return StationResult{}, err
	}
	slog.Info("scan: station synced", "name", cfg.Name, "freq", cfg.Freq, "id", id)

	idents, err := scanInterstitialDir(st, id, cfg.IdentsDir, media.KindIdent, verbose)
	if err != nil {
		return StationResult{}, err
	}
	commercials, err := scanInterstitialDir(st, id, cfg.CommercialsDir, media.KindCommercial, verbose)
	if err != nil {
		return StationResult{}, err
	}
	toth, err := scanInterstitialDir(st, id, cfg.TopOfTheHourDir, media.KindTopOfHour, verbose)
	if err != nil {
		return StationResult{}, err
	}

	if err := st.SyncScheduleOverlays(id, cfg.Schedule); err != nil {
		return StationResult{}, err
	}

	overlayCounts := make(map[string]Counts)
	seenDirs := make(map[string]bool)
	for weekday, byHour := range cfg.Schedule {
		for hour, entry := range byHour {
			if entry.OverlaysDir == "" || seenDirs[entry.OverlaysDir] {
				continue
			}
			seenDirs[entry.OverlaysDir] = true
			counts, err := scanInterstitialDir(st, id, entry.OverlaysDir, media.KindOverlay, verbose)
			if err != nil {
				return StationResult{}, err
			}
			overlayCounts[fmt.Sprintf("%s:%d", weekday, hour)] = counts
		}
	}

	return StationResult{
		StationID:   id,
		Idents:      idents,
		Commercials: commercials,
		TopOfHour:   toth,
		Overlays:    overlayCounts,
	}, nil
}

// scanInterstitialDir walks dir recursively and upserts each file as kind,
// then records its membership of the station in station_media. The
// scheduler's ident/commercial/overlay pools are selected by path prefix,
// not through station_media.
func scanInterstitialDir(st *store.Store, stationID int64, dir string, kind media.Kind, verbose bool) (Counts, error) {
	var counts Counts
	if dir == "" {
		return counts, nil
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return counts, nil
	}

	err = filepath.Walk(dir, func(path string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			slog.Warn("scan: walk error", "path", path, "error", walkErr)
			return nil
		}
		if fi.IsDir() || !supportedExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		counts.Seen++

		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		m := media.Media{
			Path:      path,
			Kind:      kind,
			Title:     stem,
			DurationS: probeDuration(path),
			MTime:     float64(fi.ModTime().Unix()),
		}
		id, err := st.UpsertMedia(m)
		if err != nil {
			slog.Warn("scan: upsert media failed", "path", path, "error", err)
			return nil
		}
		if err := st.TouchStationMedia(stationID, id, 0); err != nil {
			slog.Warn("scan: link station media failed", "station_id", stationID, "media_id", id, "error", err)
			return nil
		}
		counts.Scanned++
		if verbose {
			slog.Info("scan: interstitial", "kind", kind, "path", path, "id", id, "station_id", stationID)
		}
		return nil
	})
	if err != nil {
		return counts, fmt.Errorf("scan: walk %q: %w", dir, err)
	}
	return counts, nil
}

// parseArtistTitle splits a filename stem of the form "Artist - Title" into
// its two halves; files without the separator get title-only metadata.
func parseArtistTitle(path string) (artist, title string) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if idx := strings.Index(stem, " - "); idx >= 0 {
		return strings.TrimSpace(stem[:idx]), strings.TrimSpace(stem[idx+3:])
	}
	return "", stem
}

// readTagMetadata reads ID3/Vorbis-style tags for artist/title. ok is
// false if the file has no readable tag block, in which case the
// filename-derived fallback stands.
func readTagMetadata(path string) (artist, title string, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", false
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return "", "", false
	}
	return m.Artist(), m.Title(), true
}

// probeDuration decodes just enough of the file to compute its length in
// seconds, dispatching by extension the same way the mixer's playback
// backend does. Files it cannot decode are catalogued with duration 0
// rather than dropped from the scan.
func probeDuration(path string) float64 {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return mp3DurationSeconds(path)
	case ".wav":
		return wavDurationSeconds(path)
	default:
		return 0
	}
}

func mp3DurationSeconds(path string) float64 {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return 0
	}
	const bytesPerFrame = 4 // go-mp3 always decodes to stereo 16-bit PCM
	return float64(dec.Length()) / bytesPerFrame / float64(dec.SampleRate())
}

func wavDurationSeconds(path string) float64 {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dur, err := dec.Duration()
	if err != nil {
		return 0
	}
	return dur.Seconds()
}
