package persistence

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block compression applied to the snapshot payload.
type Compression uint8

const (
	// CompressionNone stores the canonical payload verbatim.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, modest ratio).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD block compression (better ratio).
	CompressionZSTD Compression = 2
)

var ErrUnknownCompression = fmt.Errorf("%w: unknown compression type", ErrFormat)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// compress applies comp to data. When compression does not shrink the
// payload (sparse filters compress well, dense ones may not), the data is
// stored verbatim and CompressionNone is reported so the reader side never
// pays for a useless decompression pass.
func compress(data []byte, comp Compression) ([]byte, Compression, error) {
	if comp == CompressionNone || len(data) == 0 {
		return data, CompressionNone, nil
	}

	var out []byte
	switch comp {
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, 0, err
		}
		if n == 0 { // incompressible
			return data, CompressionNone, nil
		}
		out = dst[:n]
	case CompressionZSTD:
		enc := getZstdEncoder()
		out = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, 0, fmt.Errorf("%w: %d", ErrUnknownCompression, comp)
	}

	if len(out) >= len(data) {
		return data, CompressionNone, nil
	}
	return out, comp, nil
}

// decompress reverses compress. rawLen is the expected uncompressed size
// from the envelope header.
func decompress(data []byte, comp Compression, rawLen uint32) ([]byte, error) {
	switch comp {
	case CompressionNone:
		if uint32(len(data)) != rawLen {
			return nil, fmt.Errorf("%w: payload length %d, header says %d", ErrBadBodyLength, len(data), rawLen)
		}
		return data, nil
	case CompressionLZ4:
		dst := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(data, dst)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", ErrFormat, err)
		}
		if uint32(n) != rawLen {
			return nil, fmt.Errorf("%w: lz4 produced %d bytes, header says %d", ErrBadBodyLength, n, rawLen)
		}
		return dst[:n], nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		out, err := dec.DecodeAll(data, make([]byte, 0, rawLen))
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrFormat, err)
		}
		if uint32(len(out)) != rawLen {
			return nil, fmt.Errorf("%w: zstd produced %d bytes, header says %d", ErrBadBodyLength, len(out), rawLen)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, comp)
	}
}
