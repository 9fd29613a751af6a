package soundprovider

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/loamforge/mixer/pkg/mixer"
)

// magic identifies the package's own minimal PCM container: a fixed
// header followed by raw little-endian int16 samples. Real sound assets
// are expected to have already been decoded into this form upstream;
// decoding compressed formats is out of scope here.
var magic = [4]byte{'M', 'X', 'P', 'C'}

const headerSize = 4 + 1 + 4 + 4 // magic + channels + sampleRate + frameCount

// Provider loads mixer.Sound values by path from a FileStore, caching the
// decoded result in a Cache so repeated loads of the same path skip
// re-parsing the container and re-deriving the frame count.
type Provider struct {
	store FileStore
	cache *Cache
}

// NewProvider creates a Provider backed by store. cache may be nil, in
// which case every Load re-reads and re-parses the file.
func NewProvider(store FileStore, cache *Cache) *Provider {
	return &Provider{store: store, cache: cache}
}

// Load reads and decodes the sound at path, consulting the cache first.
func (p *Provider) Load(ctx context.Context, path string) (*mixer.Sound, error) {
	if p.cache != nil {
		if snd, ok, err := p.cache.Get(ctx, path); err != nil {
			return nil, err
		} else if ok {
			return snd, nil
		}
	}

	r, err := p.store.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("soundprovider: load %s: %w", path, err)
	}
	defer r.Close()

	snd, err := decode(path, r)
	if err != nil {
		return nil, fmt.Errorf("soundprovider: decode %s: %w", path, err)
	}

	if p.cache != nil {
		if err := p.cache.Put(ctx, path, snd); err != nil {
			return nil, err
		}
	}
	return snd, nil
}

func decode(path string, r io.Reader) (*mixer.Sound, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !bytes.Equal(header[:4], magic[:]) {
		return nil, fmt.Errorf("bad magic %q", header[:4])
	}
	channels := header[4]
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}
	frameCount := binary.LittleEndian.Uint32(header[9:13])

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}
	wantLen := int(frameCount) * int(channels) * 2
	if len(raw) < wantLen {
		return nil, fmt.Errorf("truncated sample data: have %d bytes, want %d", len(raw), wantLen)
	}

	samples := make([]int16, int(frameCount)*int(channels))
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return mixer.NewSound(path, samples, channels == 2), nil
}

// Encode writes a sound back out in the provider's own container format,
// for tooling that builds sound assets rather than just loading them.
func Encode(w io.Writer, stereo bool, sampleRate uint32, samples []int16) error {
	channels := byte(1)
	if stereo {
		channels = 2
	}
	frameCount := uint32(len(samples))
	if stereo {
		frameCount /= 2
	}

	header := make([]byte, headerSize)
	copy(header[:4], magic[:])
	header[4] = channels
	binary.LittleEndian.PutUint32(header[5:9], sampleRate)
	binary.LittleEndian.PutUint32(header[9:13], frameCount)
	if _, err := w.Write(header); err != nil {
		return err
	}

	buf := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(s))
	}
	_, err := w.Write(buf)
	return err
}
