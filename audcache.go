// SPDX-License-Identifier: EPL-2.0

package audcache

import (
	"errors"
	"fmt"
	"os"

	"github.com/ik5/audcache/audio"
	"github.com/ik5/audcache/cache"
	"github.com/ik5/audcache/formats/aiff"
	"github.com/ik5/audcache/formats/mp3"
	"github.com/ik5/audcache/formats/vorbis"
	"github.com/ik5/audcache/formats/wav"
)

// NewRegistry returns a registry with every bundled decoder, keyed by
// file extension.
func NewRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{})
	reg.Register("wave", wav.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	reg.Register("oga", vorbis.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	reg.Register("aif", aiff.Decoder{})
	return reg
}

// Open decodes the file at path with the decoder registered for its
// extension. Closing the returned source closes the file.
func Open(reg *audio.Registry, path string) (audio.SoundSource, error) {
	if path == "" {
		return nil, cache.ErrNoTrack
	}

	dec, err := reg.ForPath(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	src, err := dec.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	ss, err := audio.NewSoundSource(src)
	if err != nil {
		src.Close()
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return &fileSource{SoundSource: ss, file: f}, nil
}

// FileOpener defers Open to the cache worker.
func FileOpener(reg *audio.Registry, path string) cache.OpenFunc {
	return func() (audio.SoundSource, error) {
		return Open(reg, path)
	}
}

type fileSource struct {
	audio.SoundSource
	file *os.File
}

func (s *fileSource) Close() error {
	return errors.Join(s.SoundSource.Close(), s.file.Close())
}
