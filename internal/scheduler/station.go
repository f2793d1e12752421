package scheduler

import (
	"encoding/binary"
	"math/rand/v2"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/radiodial/station/internal/config"
	"github.com/radiodial/station/internal/media"
)

// stationRuntime is the scheduler's in-memory handle for one configured
// station: its static config, schedule, and a deterministic per-station RNG.
// All mutable scheduling state beyond this lives in the store as
// media.StationState, so a restart picks up exactly where it left off.
type stationRuntime struct {
	id       int64
	name     string
	cfg      media.Station
	schedule media.Schedule

	mu  sync.Mutex
	rng *rand.Rand
}

// seedStation derives a reproducible RNG from the station's name and the
// once-per-process run entropy, so stations sharing a media library don't
// draw identical sequences (spec's "BLAKE2b(name) XOR run_entropy" scheme).
func seedStation(name string, runEntropy uint64) *rand.Rand {
	sum := blake2b.Sum256([]byte(name))
	seed1 := binary.BigEndian.Uint64(sum[0:8]) ^ runEntropy
	seed2 := binary.BigEndian.Uint64(sum[8:16]) ^ runEntropy
	return rand.New(rand.NewPCG(seed1, seed2))
}

func newStationRuntime(id int64, st *config.Station, runEntropy uint64) *stationRuntime {
	return &stationRuntime{
		id:       id,
		name:     st.Name,
		cfg:      st.Station,
		schedule: st.Schedule,
		rng:      seedStation(st.Name, runEntropy),
	}
}
