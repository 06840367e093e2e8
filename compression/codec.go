// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package compression

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies the compression algorithm of a stored projection. The
// value is stored as the first byte of the blob
type Codec uint8

const (
	CodecNone Codec = 0
	CodecLZ4  Codec = 1
	CodecZstd Codec = 2
)

var (
	ErrUnknownCodec = errors.New("unknown compression codec")
	ErrCorrupt      = errors.New("corrupt compressed projection")

	errIncompressible = errors.New("data is incompressible")
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecLZ4:
		return "lz4"
	case CodecZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCodec parses a codec from its name. An empty name selects zstd
func ParseCodec(name string) (Codec, error) {
	switch name {
	case "", "zstd":
		return CodecZstd, nil
	case "lz4":
		return CodecLZ4, nil
	case "none":
		return CodecNone, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// zstdEncoder and zstdDecoder are safe for concurrent use
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(
		nil,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression),
	)
	if err != nil {
		panic("compression: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		panic("compression: zstd decoder initialization failed: " + err.Error())
	}
}

// pack compresses data with codec. The result is the codec tag, the
// uncompressed length as a uvarint and the payload. Data that does not
// shrink is stored with CodecNone
func pack(data []byte, codec Codec) ([]byte, error) {
	var payload []byte
	var err error
	switch codec {
	case CodecNone:
		payload = data
	case CodecLZ4:
		payload, err = compressLZ4(data)
	case CodecZstd:
		payload, err = compressZstd(data)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, codec)
	}
	if errors.Is(err, errIncompressible) {
		codec = CodecNone
		payload = data
	} else if err != nil {
		return nil, err
	}
	ret := make([]byte, 0, 1+binary.MaxVarintLen64+len(payload))
	ret = append(ret, byte(codec))
	ret = binary.AppendUvarint(ret, uint64(len(data)))
	return append(ret, payload...), nil
}

// unpack reverses pack
func unpack(blob []byte) ([]byte, Codec, error) {
	if len(blob) < 2 {
		return nil, 0, fmt.Errorf("%w: short header", ErrCorrupt)
	}
	codec := Codec(blob[0])
	size, n := binary.Uvarint(blob[1:])
	if n <= 0 || size > maxProjectionSize {
		return nil, codec, fmt.Errorf("%w: bad length", ErrCorrupt)
	}
	payload := blob[1+n:]
	var data []byte
	var err error
	switch codec {
	case CodecNone:
		data = payload
	case CodecLZ4:
		data, err = decompressLZ4(payload, int(size))
	case CodecZstd:
		data, err = decompressZstd(payload, int(size))
	default:
		return nil, codec, fmt.Errorf("%w: %d", ErrUnknownCodec, codec)
	}
	if err != nil {
		return nil, codec, err
	}
	if len(data) != int(size) {
		return nil, codec, fmt.Errorf(
			"%w: got %d bytes, expected %d",
			ErrCorrupt,
			len(data),
			size,
		)
	}
	return data, codec, nil
}

// Projections are a few hundred bytes
const maxProjectionSize = 1 << 16

func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible data
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return dst[:written], nil
}

func decompressLZ4(compressed []byte, size int) ([]byte, error) {
	dst := make([]byte, size)
	read, err := lz4.UncompressBlock(compressed, dst)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %w", ErrCorrupt, err)
	}
	return dst[:read], nil
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, size int) ([]byte, error) {
	data, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", ErrCorrupt, err)
	}
	return data, nil
}
