package cache

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

func mustNewZstdEncoder() *zstd.Encoder {
	enc, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		panic(err)
	}
	return enc
}

func mustNewZstdDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(
		nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		panic(err)
	}
	return dec
}

var zstdEncPool = sync.Pool{
	New: func() any { return mustNewZstdEncoder() },
}

var zstdDecPool = sync.Pool{
	New: func() any { return mustNewZstdDecoder() },
}

// compress zstd-encodes data. Empty input stays empty.
func compress(data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	enc := zstdEncPool.Get().(*zstd.Encoder)
	out := enc.EncodeAll(data, nil)
	zstdEncPool.Put(enc)
	return out
}

// decompress reverses compress.
func decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	dec := zstdDecPool.Get().(*zstd.Decoder)
	out, err := dec.DecodeAll(data, nil)
	zstdDecPool.Put(dec)
	return out, err
}
