package mixer

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

const (
	otoSampleRate = 44100
	otoChannels   = 2
)

// OtoBackend is the default AudioBackend, decoding mp3/wav files and
// driving three independent oto players. It is grounded on the
// oto.Context/oto.Player wiring the pack's streaming client uses for
// single-stream playback, generalized here to three concurrent streams.
type OtoBackend struct {
	ctx *oto.Context

	mu          sync.Mutex
	music       *oto.Player
	noise       *oto.Player
	overlay     *oto.Player
	overlayDone chan struct{}
}

// NewOtoBackend initializes the shared oto context and blocks until it is
// ready for playback.
func NewOtoBackend() (*OtoBackend, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   otoSampleRate,
		ChannelCount: otoChannels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("mixer: create oto context: %w", err)
	}
	<-ready
	return &OtoBackend{ctx: ctx, overlayDone: make(chan struct{})}, nil
}

func (b *OtoBackend) LoadMusic(path string) error {
	src, err := decodeSeekable(path)
	if err != nil {
		return err
	}
	b.mu.Lock()
	if b.music != nil {
		_ = b.music.Close()
	}
	b.music = b.ctx.NewPlayer(src)
	b.mu.Unlock()
	return nil
}

func (b *OtoBackend) LoadNoise(path string) error {
	src, err := decodeSeekable(path)
	if err != nil {
		return err
	}
	b.mu.Lock()
	if b.noise != nil {
		_ = b.noise.Close()
	}
	b.noise = b.ctx.NewPlayer(&loopingReader{src: src})
	b.mu.Unlock()
	return nil
}

func (b *OtoBackend) LoadOverlay(path string) error {
	src, err := decodeSeekable(path)
	if err != nil {
		return err
	}
	b.mu.Lock()
	if b.overlay != nil {
		_ = b.overlay.Close()
	}
	b.overlay = b.ctx.NewPlayer(src)
	b.overlayDone = make(chan struct{})
	b.mu.Unlock()
	return nil
}

func (b *OtoBackend) PlayMusic() error   { return b.playLocked(&b.music) }
func (b *OtoBackend) PlayNoise() error   { return b.playLocked(&b.noise) }
func (b *OtoBackend) PlayOverlay() error {
	b.mu.Lock()
	p := b.overlay
	done := b.overlayDone
	b.mu.Unlock()
	if p == nil {
		return fmt.Errorf("mixer: overlay not loaded")
	}
	p.Play()
	go watchPlayerEnd(p, done)
	return nil
}

func (b *OtoBackend) playLocked(pp **oto.Player) error {
	b.mu.Lock()
	p := *pp
	b.mu.Unlock()
	if p == nil {
		return fmt.Errorf("mixer: stream not loaded")
	}
	p.Play()
	return nil
}

func (b *OtoBackend) StopMusic() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.music != nil {
		b.music.Pause()
	}
	return nil
}

func (b *OtoBackend) StopOverlay() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.overlay != nil {
		b.overlay.Pause()
	}
	return nil
}

func (b *OtoBackend) SeekMusic(seconds float64) error {
	b.mu.Lock()
	p := b.music
	b.mu.Unlock()
	if p == nil {
		return fmt.Errorf("mixer: music not loaded")
	}
	offset := int64(seconds * otoSampleRate * otoChannels * 2) // 16-bit samples
	_, err := p.Seek(offset, io.SeekStart)
	return err
}

func (b *OtoBackend) SetMusicVolume(pct int) error   { return b.setVolumeLocked(&b.music, pct) }
func (b *OtoBackend) SetNoiseVolume(pct int) error   { return b.setVolumeLocked(&b.noise, pct) }
func (b *OtoBackend) SetOverlayVolume(pct int) error { return b.setVolumeLocked(&b.overlay, pct) }

func (b *OtoBackend) setVolumeLocked(pp **oto.Player, pct int) error {
	b.mu.Lock()
	p := *pp
	b.mu.Unlock()
	if p == nil {
		return nil
	}
	p.SetVolume(float64(pct) / 100)
	return nil
}

func (b *OtoBackend) OverlayDone() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overlayDone
}

func (b *OtoBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range []*oto.Player{b.music, b.noise, b.overlay} {
		if p != nil {
			_ = p.Close()
		}
	}
	return nil
}

// watchPlayerEnd polls IsPlaying and signals done once playback stops,
// whether at end of stream or because StopOverlay paused the player. oto
// does not expose an end-of-stream event, so polling is the simplest
// substitute.
func watchPlayerEnd(p *oto.Player, done chan struct{}) {
	// Give Play() a moment to take effect before polling for completion.
	time.Sleep(20 * time.Millisecond)
	for p.IsPlaying() {
		time.Sleep(50 * time.Millisecond)
	}
	select {
	case done <- struct{}{}:
	default:
	}
}

// decodeSeekable decodes path into a seekable PCM source suitable for
// oto.Context.NewPlayer, dispatching on file extension.
func decodeSeekable(path string) (io.ReadSeeker, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mixer: open %q: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		dec, err := mp3.NewDecoder(f)
		if err != nil {
			return nil, fmt.Errorf("mixer: decode mp3 %q: %w", path, err)
		}
		buf, err := io.ReadAll(dec)
		if err != nil {
			return nil, fmt.Errorf("mixer: read mp3 %q: %w", path, err)
		}
		return bytes.NewReader(buf), nil
	case ".wav":
		dec := wav.NewDecoder(f)
		pcm, err := dec.FullPCMBuffer()
		if err != nil {
			return nil, fmt.Errorf("mixer: decode wav %q: %w", path, err)
		}
		return bytes.NewReader(pcmToInt16LE(pcm)), nil
	default:
		return nil, fmt.Errorf("mixer: unsupported audio format %q", path)
	}
}

func pcmToInt16LE(buf *audio.IntBuffer) []byte {
	out := make([]byte, len(buf.Data)*2)
	for i, s := range buf.Data {
		v := uint16(int16(s))
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

// loopingReader wraps a seekable PCM source and restarts it from the
// beginning on EOF, for the indefinitely-looping noise bed.
type loopingReader struct {
	src io.ReadSeeker
}

func (l *loopingReader) Read(p []byte) (int, error) {
	n, err := l.src.Read(p)
	if err == io.EOF {
		if _, seekErr := l.src.Seek(0, io.SeekStart); seekErr != nil {
			return n, seekErr
		}
		if n == 0 {
			return l.Read(p)
		}
		return n, nil
	}
	return n, err
}
