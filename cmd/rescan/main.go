// Command rescan deletes the sqlite database file and re-runs scan_media's
// scan logic in-process against a fresh one, for a clean rebuild of the
// catalog after the music library or station directories change shape.
package main

import (
	"errors"
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
		slog.Error("rescan: --music is required")
		os.Exit(2)
	}

	if err := os.Remove(*dbPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Error("rescan: delete db failed", "db", *dbPath, "error", err)
		os.Exit(1)
	} else if err == nil {
		slog.Info("rescan: deleted existing db", "db", *dbPath)
	}

	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(*dbPath + suffix)
	}

	st, err := store.Open(*dbPath, store.DefaultConfig())
	if err != nil {
		slog.Error("rescan: open db failed", "db", *dbPath, "error", err)
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
		slog.Error("rescan: scan failed", "error", err)
		os.Exit(1)
	}

	slog.Info("rescan: songs scanned", "seen", result.Songs.Seen, "scanned", result.Songs.Scanned)
	slog.Info("rescan: done", "stations", len(result.Stations))
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
