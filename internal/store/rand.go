package store

import "math/rand/v2"

// randIntn returns a random int in [0, n). Selection among an unordered
// pool (idents, top-of-hour jingles, overlays) has no determinism
// requirement, unlike the per-station song RNG in internal/scheduler
// which is seeded and reproducible.
func randIntn(n int) int {
	if n <= 0 {
		return 0
	}
	return rand.IntN(n)
}
