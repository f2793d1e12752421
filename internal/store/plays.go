package store

import (
	"database/sql"
	"fmt"

	"github.com/radiodial/station/internal/media"
)

// AppendPlay inserts one play-history row and returns its id.
func (s *Store) AppendPlay(p media.Play) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO plays (station_id, media_id, kind, started_ts, ended_ts)
		VALUES (?, ?, ?, ?, ?)
	`, p.StationID, p.MediaID, string(p.Kind), p.StartedTS, p.EndedTS)
	if err != nil {
		return 0, fmt.Errorf("store: append play: %w", err)
	}
	return res.LastInsertId()
}

// CloseLastPlay sets ended_ts on the most recent still-open play for a
// station (ended_ts IS NULL), if any.
func (s *Store) CloseLastPlay(stationID int64, endedTS float64) error {
	_, err := s.db.Exec(`
		UPDATE plays SET ended_ts = ?
		WHERE id = (
			SELECT id FROM plays WHERE station_id = ? AND ended_ts IS NULL
			ORDER BY started_ts DESC LIMIT 1
		)
	`, endedTS, stationID)
	return err
}

// AppendPlayAndSaveState records a play transition and the resulting
// station_state in one transaction so the two writes never observably
// diverge.
func (s *Store) AppendPlayAndSaveState(p media.Play, st *media.StationState) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: begin play+state transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		INSERT INTO plays (station_id, media_id, kind, started_ts, ended_ts)
		VALUES (?, ?, ?, ?, ?)
	`, p.StationID, p.MediaID, string(p.Kind), p.StartedTS, p.EndedTS)
	if err != nil {
		return 0, fmt.Errorf("store: insert play: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err := s.saveStateTx(tx, st); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit play+state transaction: %w", err)
	}
	return id, nil
}

// RecentPlays returns the last limit plays for a station, most recent first.
func (s *Store) RecentPlays(stationID int64, limit int) ([]media.Play, error) {
	rows, err := s.db.Query(`
		SELECT id, station_id, media_id, kind, started_ts, ended_ts
		FROM plays WHERE station_id = ? ORDER BY started_ts DESC LIMIT ?
	`, stationID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent plays: %w", err)
	}
	defer rows.Close()

	var out []media.Play
	for rows.Next() {
		var p media.Play
		var kind string
		var ended sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.StationID, &p.MediaID, &kind, &p.StartedTS, &ended); err != nil {
			return nil, err
		}
		p.Kind = media.Kind(kind)
		if ended.Valid {
			v := ended.Float64
			p.EndedTS = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
