package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionAlgo selects the block compressor wrapped around an inner Codec.
type CompressionAlgo int

const (
	// Zstd favors ratio; Default wraps JSON in it.
	Zstd CompressionAlgo = iota
	// LZ4 favors latency; selectable via Compressed or ByName.
	LZ4
)

func (a CompressionAlgo) String() string {
	switch a {
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// Compressed wraps inner with block compression. The wrapped codec's Name
// is "<inner>+<algo>" so persisted payloads remain self-describing.
func Compressed(inner Codec, algo CompressionAlgo) Codec {
	return &compressed{inner: inner, algo: algo}
}

type compressed struct {
	inner Codec
	algo  CompressionAlgo
}

func (c *compressed) Name() string { return fmt.Sprintf("%s+%s", c.inner.Name(), c.algo) }

func (c *compressed) Marshal(v any) ([]byte, error) {
	raw, err := c.inner.Marshal(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch c.algo {
	case Zstd:
		w, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, fmt.Errorf("codec: zstd writer: %w", err)
		}
		if _, err := w.Write(raw); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("codec: zstd write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("codec: zstd close: %w", err)
		}
	case LZ4:
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("codec: lz4 write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("codec: lz4 close: %w", err)
		}
	default:
		return nil, fmt.Errorf("codec: unknown compression algo %d", c.algo)
	}

	return buf.Bytes(), nil
}

func (c *compressed) Unmarshal(data []byte, v any) error {
	var r io.Reader
	switch c.algo {
	case Zstd:
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("codec: zstd reader: %w", err)
		}
		defer zr.Close()
		r = zr
	case LZ4:
		r = lz4.NewReader(bytes.NewReader(data))
	default:
		return fmt.Errorf("codec: unknown compression algo %d", c.algo)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("codec: decompress: %w", err)
	}

	return c.inner.Unmarshal(raw, v)
}
