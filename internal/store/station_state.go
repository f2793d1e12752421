package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/radiodial/station/internal/media"
)

// GetState loads the persistent programming cursor for a station. Returns
// a zero-value state with StationID set (never nil) when no row exists yet,
// so the scheduler's first tick for a brand-new station has something to
// advance from.
func (s *Store) GetState(stationID int64) (*media.StationState, error) {
	var st media.StationState
	var currentMediaID sql.NullInt64
	var kind sql.NullString
	var queueJSON sql.NullString
	var startedTS, endsTS sql.NullFloat64
	var pendingBreak, forceIdentNext int

	err := s.db.QueryRow(`
		SELECT current_media_id, kind, started_ts, ends_ts, queue_json, queue_index,
			pending_break, last_break_ts, force_ident_next, last_ident_ts, last_toth_slot_ts
		FROM station_state WHERE station_id = ?
	`, stationID).Scan(&currentMediaID, &kind, &startedTS, &endsTS, &queueJSON, &st.QueueIndex,
		&pendingBreak, &st.LastBreakTS, &forceIdentNext, &st.LastIdentTS, &st.LastTothSlotTS)

	st.StationID = stationID
	if err == sql.ErrNoRows {
		return &st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get station state %d: %w", stationID, err)
	}

	if currentMediaID.Valid {
		id := currentMediaID.Int64
		st.CurrentMediaID = &id
	}
	st.Kind = media.Kind(kind.String)
	st.StartedTS = startedTS.Float64
	st.EndsTS = endsTS.Float64
	st.PendingBreak = pendingBreak != 0
	st.ForceIdentNext = forceIdentNext != 0
	if queueJSON.Valid && queueJSON.String != "" {
		if err := json.Unmarshal([]byte(queueJSON.String), &st.Queue); err != nil {
			return nil, fmt.Errorf("store: decode queue for station %d: %w", stationID, err)
		}
	}
	return &st, nil
}

// SaveState upserts the full station_state row. Callers that also record a
// play transition should use AppendPlayAndSaveState instead, so the two
// writes commit atomically.
func (s *Store) SaveState(st *media.StationState) error {
	return s.saveStateTx(s.db, st)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *Store) saveStateTx(ex execer, st *media.StationState) error {
	queueJSON, err := json.Marshal(st.Queue)
	if err != nil {
		return fmt.Errorf("store: encode queue for station %d: %w", st.StationID, err)
	}

	var currentMediaID sql.NullInt64
	if st.CurrentMediaID != nil {
		currentMediaID = sql.NullInt64{Int64: *st.CurrentMediaID, Valid: true}
	}

	_, err = ex.Exec(`
		INSERT INTO station_state (station_id, current_media_id, kind, started_ts, ends_ts, queue_json,
			queue_index, pending_break, last_break_ts, force_ident_next, last_ident_ts, last_toth_slot_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(station_id) DO UPDATE SET
			current_media_id = excluded.current_media_id,
			kind = excluded.kind,
			started_ts = excluded.started_ts,
			ends_ts = excluded.ends_ts,
			queue_json = excluded.queue_json,
			queue_index = excluded.queue_index,
			pending_break = excluded.pending_break,
			last_break_ts = excluded.last_break_ts,
			force_ident_next = excluded.force_ident_next,
			last_ident_ts = excluded.last_ident_ts,
			last_toth_slot_ts = excluded.last_toth_slot_ts
	`, st.StationID, currentMediaID, string(st.Kind), st.StartedTS, st.EndsTS, string(queueJSON),
		st.QueueIndex, boolToInt(st.PendingBreak), st.LastBreakTS, boolToInt(st.ForceIdentNext),
		st.LastIdentTS, st.LastTothSlotTS)
	if err != nil {
		return fmt.Errorf("store: save station state %d: %w", st.StationID, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
