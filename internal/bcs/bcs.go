// Package bcs serializes the Move values the tools sign over. Integers are little-endian and
// addresses are their 32 raw bytes.
package bcs

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"

	"github.com/StarryNift/starrynift-nft-box/internal/sui"
)

// Encoder accumulates BCS values in order.
type Encoder struct {
	buf bytes.Buffer
	enc *bin.Encoder
	err error
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder {
	e := &Encoder{}
	e.enc = bin.NewBinEncoder(&e.buf)
	return e
}

func (e *Encoder) do(fn func() error) *Encoder {
	if e.err == nil {
		e.err = fn()
	}
	return e
}

// Address writes the 32 raw address bytes with no length prefix.
func (e *Encoder) Address(addr string) *Encoder {
	return e.do(func() error {
		raw, err := sui.AddressBytes(addr)
		if err != nil {
			return err
		}
		return e.enc.WriteBytes(raw, false)
	})
}

func (e *Encoder) U8(v uint8) *Encoder {
	return e.do(func() error { return e.enc.WriteUint8(v) })
}

func (e *Encoder) U64(v uint64) *Encoder {
	return e.do(func() error { return e.enc.WriteUint64(v, binary.LittleEndian) })
}

// Result returns the encoded bytes or the first error hit.
func (e *Encoder) Result() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	return append([]byte(nil), e.buf.Bytes()...), nil
}
