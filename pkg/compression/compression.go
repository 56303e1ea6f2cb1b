// Package compression wraps a store codec so large memoized values are
// compressed before they leave the process.
package compression

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"

	"github.com/vnykmshr/memoproxy/internal/store"
)

// Algorithm names a compression algorithm
type Algorithm string

const (
	AlgorithmNone    Algorithm = "none"
	AlgorithmGzip    Algorithm = "gzip"
	AlgorithmDeflate Algorithm = "deflate"
)

// Every payload starts with one of these markers
const (
	markRaw byte = iota
	markGzip
	markDeflate
)

// ErrCorruptPayload is returned for payloads this codec did not write
var ErrCorruptPayload = errors.New("compression: payload has no valid marker")

// Config holds compression settings
type Config struct {
	// Algorithm applied to payloads of at least MinSize bytes
	Algorithm Algorithm

	// MinSize is the smallest encoded payload worth compressing
	MinSize int

	// Level is the compression level (1-9, -1 for the library default)
	Level int
}

// NewDefaultConfig returns gzip at the default level for payloads of 1KB or more
func NewDefaultConfig() *Config {
	return &Config{
		Algorithm: AlgorithmGzip,
		MinSize:   1024,
		Level:     -1,
	}
}

// WithAlgorithm sets the compression algorithm
func (c *Config) WithAlgorithm(algorithm Algorithm) *Config {
	c.Algorithm = algorithm
	return c
}

// WithMinSize sets the minimum size threshold for compression
func (c *Config) WithMinSize(minSize int) *Config {
	c.MinSize = minSize
	return c
}

// WithLevel sets the compression level
func (c *Config) WithLevel(level int) *Config {
	c.Level = level
	return c
}

// Codec compresses the output of an inner codec. Payloads below MinSize, or
// that do not shrink, are stored raw; decoding accepts either.
type Codec struct {
	inner  store.Codec
	config Config
	mark   byte
}

// NewCodec wraps inner. A nil config uses NewDefaultConfig.
func NewCodec(inner store.Codec, config *Config) (*Codec, error) {
	if inner == nil {
		inner = store.MsgpackCodec{}
	}
	if config == nil {
		config = NewDefaultConfig()
	}

	c := &Codec{inner: inner, config: *config}
	switch config.Algorithm {
	case AlgorithmNone, "":
		c.mark = markRaw
	case AlgorithmGzip:
		c.mark = markGzip
	case AlgorithmDeflate:
		c.mark = markDeflate
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", config.Algorithm)
	}
	return c, nil
}

// Marshal encodes v with the inner codec and compresses the result
func (c *Codec) Marshal(v any) ([]byte, error) {
	data, err := c.inner.Marshal(v)
	if err != nil {
		return nil, err
	}

	if c.mark != markRaw && len(data) >= c.config.MinSize {
		packed, err := c.compress(data)
		if err != nil {
			return nil, err
		}
		if len(packed) < len(data) {
			return append([]byte{c.mark}, packed...), nil
		}
	}
	return append([]byte{markRaw}, data...), nil
}

// Unmarshal decompresses data if needed and decodes it into v
func (c *Codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return ErrCorruptPayload
	}

	body := data[1:]
	switch data[0] {
	case markRaw:
	case markGzip:
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("gzip reader: %w", err)
		}
		defer r.Close()
		if body, err = io.ReadAll(r); err != nil {
			return fmt.Errorf("gzip read: %w", err)
		}
	case markDeflate:
		r, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("deflate reader: %w", err)
		}
		defer r.Close()
		if body, err = io.ReadAll(r); err != nil {
			return fmt.Errorf("deflate read: %w", err)
		}
	default:
		return ErrCorruptPayload
	}

	return c.inner.Unmarshal(body, v)
}

func (c *Codec) compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	var (
		w   io.WriteCloser
		err error
	)
	if c.mark == markGzip {
		w, err = gzip.NewWriterLevel(&buf, c.config.Level)
	} else {
		w, err = zlib.NewWriterLevel(&buf, c.config.Level)
	}
	if err != nil {
		return nil, fmt.Errorf("compressor: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	return buf.Bytes(), nil
}

var _ store.Codec = (*Codec)(nil)
