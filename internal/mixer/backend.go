// Package mixer drives the three audio streams backing a tuned station:
// noise, music, and overlay. It decides what should be loaded, seeked, and
// ducked; an AudioBackend does the actual decoding and output.
package mixer

// AudioBackend performs the actual decode/output work for the three
// independent streams the Mixer manages. Implementations must be safe for
// concurrent use: the Mixer calls them without holding its own mutex, from
// the caller's goroutine as well as from its ramp, seek-retry, and overlay
// goroutines.
type AudioBackend interface {
	// LoadMusic opens path on the music stream, stopped, ready to Play.
	LoadMusic(path string) error
	// LoadNoise opens path on the noise stream as a looping source.
	LoadNoise(path string) error
	// LoadOverlay opens path on the overlay stream, stopped, ready to Play.
	LoadOverlay(path string) error

	PlayMusic() error
	PlayNoise() error
	PlayOverlay() error
	StopMusic() error
	StopOverlay() error

	// SeekMusic seeks the loaded music stream to the given offset in
	// seconds. Implementations may reject a seek issued immediately after
	// load; the mixer retries every 50ms for up to 2s, then gives up.
	SeekMusic(seconds float64) error

	SetMusicVolume(pct int) error
	SetNoiseVolume(pct int) error
	SetOverlayVolume(pct int) error

	// OverlayDone returns a channel that receives a value once when the
	// most recently loaded overlay finishes playing naturally (EOF). A new
	// LoadOverlay call supersedes any prior channel.
	OverlayDone() <-chan struct{}

	// Close releases all three streams and any backend resources.
	Close() error
}
