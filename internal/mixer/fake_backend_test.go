package mixer

import "sync"

// fakeBackend is a goroutine-safe AudioBackend stand-in recording every call,
// used in place of OtoBackend since tests have no real audio device or
// media files to decode.
type fakeBackend struct {
	mu sync.Mutex

	musicPath    string
	noisePath    string
	overlayPath  string
	musicPlaying bool
	overlayOn    bool
	musicVol     int
	noiseVol     int
	overlayVol   int
	seeks        []float64
	loadMusicN   int
	overlayDone  chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{overlayDone: make(chan struct{}, 1)}
}

func (f *fakeBackend) LoadMusic(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.musicPath = path
	f.loadMusicN++
	return nil
}

func (f *fakeBackend) LoadNoise(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noisePath = path
	return nil
}

func (f *fakeBackend) LoadOverlay(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overlayPath = path
	return nil
}

func (f *fakeBackend) PlayMusic() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.musicPlaying = true
	return nil
}

func (f *fakeBackend) PlayNoise() error { return nil }

func (f *fakeBackend) PlayOverlay() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overlayOn = true
	return nil
}

func (f *fakeBackend) StopMusic() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.musicPlaying = false
	return nil
}

func (f *fakeBackend) StopOverlay() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overlayOn = false
	return nil
}

func (f *fakeBackend) SeekMusic(seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, seconds)
	return nil
}

func (f *fakeBackend) SetMusicVolume(pct int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.musicVol = pct
	return nil
}

func (f *fakeBackend) SetNoiseVolume(pct int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noiseVol = pct
	return nil
}

func (f *fakeBackend) SetOverlayVolume(pct int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overlayVol = pct
	return nil
}

func (f *fakeBackend) OverlayDone() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overlayDone
}

func (f *fakeBackend) Close() error { return nil }

func (f *fakeBackend) snapshot() fakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fakeBackend{
		musicPath: f.musicPath, noisePath: f.noisePath, overlayPath: f.overlayPath,
		musicPlaying: f.musicPlaying, overlayOn: f.overlayOn,
		musicVol: f.musicVol, noiseVol: f.noiseVol, overlayVol: f.overlayVol,
		loadMusicN: f.loadMusicN,
	}
}
