package store

import (
	"fmt"

	"github.com/radiodial/station/internal/media"
)

// SyncScheduleOverlays mirrors a station's TOML schedule into
// station_overlays, keyed by "weekday:hour". The TOML config remains the
// source of truth consulted at decision time (internal/config); this table
// exists so the overlay bundle assignment for a slot survives independent
// of the config file and can be inspected or edited at the row level,
// matching the legacy schema this table was renamed from.
func (s *Store) SyncScheduleOverlays(stationID int64, sched media.Schedule) error {
	for weekday, byHour := range sched {
		for hour, entry := range byHour {
			if entry.OverlaysDir == "" {
				continue
			}
			key := fmt.Sprintf("%s:%d", weekday, hour)
			_, err := s.db.Exec(`
				INSERT INTO station_overlays (station_id, schedule_key, overlays_dir, overlays_probability)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(station_id, schedule_key) DO UPDATE SET
					overlays_dir = excluded.overlays_dir,
					overlays_probability = excluded.overlays_probability
			`, stationID, key, entry.OverlaysDir, entry.OverlaysProbability)
			if err != nil {
				return fmt.Errorf("store: sync schedule overlay %s for station %d: %w", key, stationID, err)
			}
		}
	}
	return nil
}

// GetScheduleOverlay looks up the persisted overlay bundle for one
// (weekday, hour) slot, returning ("", 0, nil) if none is set.
func (s *Store) GetScheduleOverlay(stationID int64, weekday string, hour int) (dir string, probability float64, err error) {
	key := fmt.Sprintf("%s:%d", weekday, hour)
	err = s.db.QueryRow(`
		SELECT overlays_dir, overlays_probability FROM station_overlays
		WHERE station_id = ? AND schedule_key = ?
	`, stationID, key).Scan(&dir, &probability)
	if err != nil {
		return "", 0, nil
	}
	return dir, probability, nil
}
