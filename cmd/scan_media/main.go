// Command scan_media walks a music root and every configured station's
// interstitial directories, upserting discovered audio files into the
// sqlite catalog.
package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"

	"github.com/radiodial/station/internal/scan"
	"github.com/radiodial/station/internal/store"
)

func main() {
	dbPath := flag.String("db", "./radio.db", "path to sqlite database")
	musicRoot := flag.String("music", "", "root containing tag subfolders (recursive)")
	stationsFlag := flag.String("stations", "./stations/*.toml", "comma-separated station TOML globs")
	verbose := flag.Bool("verbose", false, "log every scanned file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if *musicRoot == "" {
		slog.Error("scan_media: --music is required")
		os.Exit(2)
	}

	st, err := store.Open(*dbPath, store.DefaultConfig())
	if err != nil {
		slog.Error("scan_media: open db failed", "db", *dbPath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	globs := splitNonEmpty(*stationsFlag, ",")
	result, err := scan.Run(st, scan.Options{
		MusicRoot:    *musicRoot,
		StationGlobs: globs,
		Verbose:      *verbose,
	})
	if err != nil {
		slog.Error("scan_media: scan failed", "error", err)
		os.Exit(1)
	}

	slog.Info("scan_media: songs scanned", "seen", result.Songs.Seen, "scanned", result.Songs.Scanned)
	for name, sr := range result.Stations {
		slog.Info("scan_media: station scanned",
			"station", name, "station_id", sr.StationID,
			"idents_seen", sr.Idents.Seen, "idents_scanned", sr.Idents.Scanned,
			"commercials_seen", sr.Commercials.Seen, "commercials_scanned", sr.Commercials.Scanned,
			"top_of_hour_seen", sr.TopOfHour.Seen, "top_of_hour_scanned", sr.TopOfHour.Scanned,
		)
		for slot, counts := range sr.Overlays {
			slog.Info("scan_media: overlay slot scanned", "station", name, "slot", slot, "seen", counts.Seen, "scanned", counts.Scanned)
		}
	}
	slog.Info("scan_media: done")
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
