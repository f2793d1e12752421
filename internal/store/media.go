package store

import (
	"database/sql"
	"fmt"

	"github.com/radiodial/station/internal/media"
)

// UpsertMedia inserts or updates a media row by its unique path, returning
// the row's id. Used by cmd/scan_media.
func (s *Store) UpsertMedia(m media.Media) (int64, error) {
	_, err := s.db.Exec(`
		INSERT INTO media (path, kind, artist, title, tag, duration_s, mtime)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			kind = excluded.kind,
			artist = excluded.artist,
			title = excluded.title,
			tag = excluded.tag,
			duration_s = excluded.duration_s,
			mtime = excluded.mtime
	`, m.Path, string(m.Kind), m.Artist, m.Title, m.Tag, m.DurationS, m.MTime)
	if err != nil {
		return 0, fmt.Errorf("store: upsert media %q: %w", m.Path, err)
	}
	var id int64
	err = s.db.QueryRow(`SELECT id FROM media WHERE path = ?`, m.Path).Scan(&id)
	return id, err
}

// GetMedia fetches a media row by id. Returns (nil, nil) if not found, so
// callers can distinguish "missing" from a store error.
func (s *Store) GetMedia(id int64) (*media.Media, error) {
	var m media.Media
	var artist, title, tag sql.NullString
	var mtime sql.NullFloat64
	err := s.db.QueryRow(`SELECT id, path, kind, artist, title, tag, duration_s, mtime FROM media WHERE id = ?`, id).
		Scan(&m.ID, &m.Path, &m.Kind, &artist, &title, &tag, &m.DurationS, &mtime)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get media %d: %w", id, err)
	}
	m.Artist, m.Title, m.Tag = artist.String, title.String, tag.String
	m.MTime = mtime.Float64
	return &m, nil
}

// RandomMediaWithPrefix returns a random media row of the given kind whose
// path begins with prefix, or nil if none match. Used for idents,
// top-of-hour jingles, and overlays, all of which are selected by
// directory prefix.
func (s *Store) RandomMediaWithPrefix(kind media.Kind, prefix string) (*media.Media, error) {
	if prefix == "" {
		return nil, nil
	}
	rows, err := s.queryMediaByKindPrefix(kind, prefix, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[randIntn(len(rows))], nil
}

// SongPool returns up to limit songs matching any of tags, with
// duration_s <= maxDuration, ordered by duration_s DESC, id DESC.
func (s *Store) SongPool(tags []string, maxDuration float64, limit int) ([]media.Media, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(tags))
	args := make([]any, 0, len(tags)+2)
	args = append(args, string(media.KindSong))
	for i, t := range tags {
		placeholders[i] = "?"
		args = append(args, t)
	}
	args = append(args, maxDuration)

	query := fmt.Sprintf(`
		SELECT id, path, kind, artist, title, tag, duration_s, mtime
		FROM media
		WHERE kind = ? AND tag IN (%s) AND duration_s <= ?
		ORDER BY duration_s DESC, id DESC
	`, joinPlaceholders(placeholders))
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: song pool: %w", err)
	}
	defer rows.Close()
	return scanMediaRows(rows)
}

// CommercialPool returns up to limit commercials whose path begins with dir.
func (s *Store) CommercialPool(dir string, limit int) ([]media.Media, error) {
	return s.queryMediaByKindPrefix(media.KindCommercial, dir, limit)
}

func (s *Store) queryMediaByKindPrefix(kind media.Kind, prefix string, limit int) ([]media.Media, error) {
	query := `SELECT id, path, kind, artist, title, tag, duration_s, mtime FROM media WHERE kind = ? AND path LIKE ? ESCAPE '\'`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.Query(query, string(kind), likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("store: query media by prefix: %w", err)
	}
	defer rows.Close()
	return scanMediaRows(rows)
}

// CurrentlyPlayingMediaIDs returns the set of media ids currently set as
// current_media_id in station_state for every station except
// excludeStation, forming the song-selection avoid-set.
func (s *Store) CurrentlyPlayingMediaIDs(excludeStation int64) (map[int64]bool, error) {
	rows, err := s.db.Query(`SELECT current_media_id FROM station_state WHERE station_id != ? AND current_media_id IS NOT NULL`, excludeStation)
	if err != nil {
		return nil, fmt.Errorf("store: currently playing media ids: %w", err)
	}
	defer rows.Close()

	set := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		set[id] = true
	}
	return set, rows.Err()
}

// TouchStationMedia records that a station just played a media item,
// upserting the station_media membership row with last_played_ts.
func (s *Store) TouchStationMedia(stationID, mediaID int64, ts float64) error {
	_, err := s.db.Exec(`
		INSERT INTO station_media (station_id, media_id, last_played_ts)
		VALUES (?, ?, ?)
		ON CONFLICT(station_id, media_id) DO UPDATE SET last_played_ts = excluded.last_played_ts
	`, stationID, mediaID, ts)
	return err
}

func scanMediaRows(rows *sql.Rows) ([]media.Media, error) {
	var out []media.Media
	for rows.Next() {
		var m media.Media
		var artist, title, tag sql.NullString
		var mtime sql.NullFloat64
		if err := rows.Scan(&m.ID, &m.Path, &m.Kind, &artist, &title, &tag, &m.DurationS, &mtime); err != nil {
			return nil, err
		}
		m.Artist, m.Title, m.Tag = artist.String, title.String, tag.String
		m.MTime = mtime.Float64
		out = append(out, m)
	}
	return out, rows.Err()
}

func joinPlaceholders(ps []string) string {
	out := ps[0]
	for _, p := range ps[1:] {
		out += "," + p
	}
	return out
}

func likePrefix(prefix string) string {
	escaped := ""
	for _, r := range prefix {
		switch r {
		case '\\', '%', '_':
			escaped += "\\" + string(r)
		default:
			escaped += string(r)
		}
	}
	return escaped + "%"
}
