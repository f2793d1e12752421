package store

import (
	"database/sql"
	"fmt"

	"github.com/radiodial/station/internal/media"
)

// SyncStation upserts a station row from its loaded TOML config, returning
// the row's id. Station config is owned by internal/config and TOML is the
// source of truth; this keeps the stations table in sync as a persisted
// mirror that plays/station_state can foreign-key against.
func (s *Store) SyncStation(st media.Station) (int64, error) {
	_, err := s.db.Exec(`
		INSERT INTO stations (name, freq, idents_dir, commercials_dir, break_frequency_s, break_length_s,
			ident_frequency_s, overlay_pad_s, overlay_duck, overlay_ramp_s, top_of_the_hour)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			freq = excluded.freq,
			idents_dir = excluded.idents_dir,
			commercials_dir = excluded.commercials_dir,
			break_frequency_s = excluded.break_frequency_s,
			break_length_s = excluded.break_length_s,
			ident_frequency_s = excluded.ident_frequency_s,
			overlay_pad_s = excluded.overlay_pad_s,
			overlay_duck = excluded.overlay_duck,
			overlay_ramp_s = excluded.overlay_ramp_s,
			top_of_the_hour = excluded.top_of_the_hour
	`, st.Name, st.Freq, st.IdentsDir, st.CommercialsDir, st.BreakFrequencyS, st.BreakLengthS,
		st.IdentFrequencyS, st.OverlayPadS, st.OverlayDuck, st.OverlayRampS, st.TopOfTheHourDir)
	if err != nil {
		return 0, fmt.Errorf("store: sync station %q: %w", st.Name, err)
	}
	var id int64
	err = s.db.QueryRow(`SELECT id FROM stations WHERE name = ?`, st.Name).Scan(&id)
	return id, err
}

// GetStationByName fetches a station row by name. Returns (nil, nil) if
// absent.
func (s *Store) GetStationByName(name string) (*media.Station, error) {
	row := s.db.QueryRow(`
		SELECT id, name, freq, idents_dir, commercials_dir, break_frequency_s, break_length_s,
			ident_frequency_s, overlay_pad_s, overlay_duck, overlay_ramp_s, top_of_the_hour
		FROM stations WHERE name = ?
	`, name)
	st, err := scanStation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get station %q: %w", name, err)
	}
	return st, nil
}

// ListStations returns every station row, ordered by id.
func (s *Store) ListStations() ([]media.Station, error) {
	rows, err := s.db.Query(`
		SELECT id, name, freq, idents_dir, commercials_dir, break_frequency_s, break_length_s,
			ident_frequency_s, overlay_pad_s, overlay_duck, overlay_ramp_s, top_of_the_hour
		FROM stations ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list stations: %w", err)
	}
	defer rows.Close()

	var out []media.Station
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStation(r rowScanner) (*media.Station, error) {
	var st media.Station
	if err := r.Scan(&st.ID, &st.Name, &st.Freq, &st.IdentsDir, &st.CommercialsDir,
		&st.BreakFrequencyS, &st.BreakLengthS, &st.IdentFrequencyS,
		&st.OverlayPadS, &st.OverlayDuck, &st.OverlayRampS, &st.TopOfTheHourDir); err != nil {
		return nil, err
	}
	return &st, nil
}
