// Package builder implements the two-phase shard builder: an in-memory
// append phase bounded by a byte budget, an offline merge phase that
// produces the canonical shard file, and an optimize pass.
//
// Grounded on compactindexsized/build.go's Builder/tempBucket shape
// (github.com/rpcpool/yellowstone-faithful) for the in-memory-cache-then-
// seal structure, and on gsfa/linkedlog/compress.go's zstd encoder/decoder
// pool pattern (deleted from the workspace after grounding — it was bound
// to a Solana-specific record format) for append-log compression.
package builder

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	zstdpool "github.com/mostynb/zstdpool-freelist"
)

var (
	encoderPool = zstdpool.NewEncoderPool(zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	decoderPool = zstdpool.NewDecoderPool()
)

// compressBatch zstd-compresses raw (a concatenation of append-log frames)
// into a single buffer.
func compressBatch(raw []byte) ([]byte, error) {
	var out bytes.Buffer
	enc, err := encoderPool.Get(&out)
	if err != nil {
		return nil, fmt.Errorf("builder: get zstd encoder: %w", err)
	}
	defer encoderPool.Put(enc)

	if _, err := enc.Write(raw); err != nil {
		return nil, fmt.Errorf("builder: zstd compress: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("builder: zstd compress close: %w", err)
	}
	return out.Bytes(), nil
}

// decompressBatch reverses compressBatch.
func decompressBatch(compressed []byte) ([]byte, error) {
	dec, err := decoderPool.Get(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("builder: get zstd decoder: %w", err)
	}
	defer decoderPool.Put(dec)

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("builder: zstd decompress: %w", err)
	}
	return raw, nil
}
