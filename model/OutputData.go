package model

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/bsv-blockchain/go-coinset/compress"
	"github.com/bsv-blockchain/go-coinset/errors"
	"github.com/bsv-blockchain/go-coinset/serialize"
)

// OutputData carries the spend-relevant data of a single output,
// independent of its owning transaction. It is the value type of the
// contract index.
//
// ReferenceHeight is uint64 because the version 2 wire trailer packs
// height and reference height into one varint (see Bytes), and a decoded
// record carries that packed value back verbatim.
type OutputData struct {
	Version         uint32
	Amount          uint64
	Height          uint32
	ReferenceHeight uint64
}

// Bytes returns the canonical serialization: varint(version),
// varint(height), varint(compressed amount), and for version 2 one further
// varint holding (height<<1)|referenceHeight.
//
// The trailer is intentionally NOT symmetric with the decoder, which reads
// it back as a plain reference height: this reproduces the established
// wire behavior bit for bit. See the format quirk test.
func (d *OutputData) Bytes() []byte {
	b := serialize.VarIntBytes(uint64(d.Version))
	b = append(b, serialize.VarIntBytes(uint64(d.Height))...)
	b = append(b, serialize.VarIntBytes(compress.Amount(d.Amount))...)

	if d.Version == 2 {
		b = append(b, serialize.VarIntBytes(uint64(d.Height)<<1|d.ReferenceHeight)...)
	}

	return b
}

// NewOutputDataFromReader reads one serialized output record from r.
func NewOutputDataFromReader(r io.Reader) (*OutputData, error) {
	d := &OutputData{}

	version, err := serialize.ReadVarInt(r)
	if err != nil {
		return nil, errors.NewTxInvalidError("could not read version", err)
	}

	if version > math.MaxUint32 {
		return nil, errors.NewTxInvalidError("version %d does not fit in 32 bits", version)
	}

	d.Version = uint32(version)

	height, err := serialize.ReadVarInt(r)
	if err != nil {
		return nil, errors.NewTxInvalidError("could not read height", err)
	}

	if height > math.MaxUint32 {
		return nil, errors.NewTxInvalidError("height %d does not fit in 32 bits", height)
	}

	d.Height = uint32(height)

	amount, err := serialize.ReadVarInt(r)
	if err != nil {
		return nil, errors.NewTxInvalidError("could not read amount", err)
	}

	d.Amount = compress.DecompressAmount(amount)

	if d.Version == 2 {
		referenceHeight, err := serialize.ReadVarInt(r)
		if err != nil {
			return nil, errors.NewTxInvalidError("could not read reference height", err)
		}

		d.ReferenceHeight = referenceHeight
	}

	return d, nil
}

// NewOutputDataFromBytes builds an output record from its serialization.
func NewOutputDataFromBytes(b []byte) (*OutputData, error) {
	return NewOutputDataFromReader(bytes.NewReader(b))
}

// Equal reports whether two records hold the same fields. The reference
// height only participates when version is 2.
func (d *OutputData) Equal(other *OutputData) bool {
	if d.Version != other.Version || d.Amount != other.Amount || d.Height != other.Height {
		return false
	}

	if d.Version == 2 && d.ReferenceHeight != other.ReferenceHeight {
		return false
	}

	return true
}

func (d *OutputData) String() string {
	return fmt.Sprintf("OutputData{version: %d, amount: %d, height: %d, reference_height: %d}",
		d.Version, d.Amount, d.Height, d.ReferenceHeight)
}
