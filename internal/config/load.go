package config

import (
	"fmt"
	"path/filepath"
	"sort"
)

// LoadStations expands the glob pattern and loads every matched TOML file.
// Files are returned sorted by path for deterministic startup ordering.
func LoadStations(glob string) ([]*Station, error) {
	matches, err := filepath.Glob(glob)
	if err != nil {
		return nil, fmt.Errorf("config: invalid station glob %q: %w", glob, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("config: no station files matched %q", glob)
	}
	sort.Strings(matches)

	stations := make([]*Station, 0, len(matches))
	for _, path := range matches {
		st, err := LoadStation(path)
		if err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, nil
}
