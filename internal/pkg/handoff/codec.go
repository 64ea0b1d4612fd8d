package handoff

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// zstd handles are safe for concurrent EncodeAll/DecodeAll.
var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error

	if encoder, err = zstd.NewWriter(nil); err != nil {
		panic(fmt.Errorf("could not create zstd encoder: %w", err))
	}

	if decoder, err = zstd.NewReader(nil); err != nil {
		panic(fmt.Errorf("could not create zstd decoder: %w", err))
	}
}

// Encode marshals p and compresses it with zstd.
func Encode(p *SignedPayload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("could not marshal payload: %w", err)
	}

	return encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func Decode(data []byte) (*SignedPayload, error) {
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("could not decompress payload: %w", err)
	}

	p := new(SignedPayload)
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("could not unmarshal payload: %w", err)
	}

	return p, nil
}
