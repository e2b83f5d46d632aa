// Package model provides the core records of the coin set: the pruned
// per-transaction record and the per-output key and value records, together
// with their canonical byte encodings. The encodings are position dependent
// rather than self-describing, so every field must be produced and consumed
// bit-exactly in the order given here.
package model

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"math/big"
	"sort"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-coinset/compress"
	"github.com/bsv-blockchain/go-coinset/errors"
	"github.com/bsv-blockchain/go-coinset/serialize"
)

// One script codec serves the whole package: it is stateless and safe for
// concurrent use, and the deserialize paths need it at package level anyway.
var pickler = compress.NewScriptCodec()

// maxBitvectorBytes bounds the unspentness bitvector length read from the
// wire so that a malformed code byte cannot force a huge allocation.
const maxBitvectorBytes = 1 << 20

// UnspentTransaction is the pruned form of a transaction: only metadata and
// the not-yet-spent outputs are retained, keyed by output index.
//
// Serialized format:
//   - varint(version)
//   - varint(code)
//   - unspentness bitvector for outputs[3] and further, minimal
//     little-endian, length taken from code
//   - the unspent outputs in ascending index order, each as
//     varint(compressed amount) followed by the compressed locking script
//   - varint(height)
//   - varint(referenceHeight), only when version is 2
//
// The low three bits of code carry the spentness of outputs 0, 1 and 2
// inline. The remaining bits carry N, the byte length of the bitvector
// that follows, or N-1 when the low three bits are all zero (at least one
// unspent output must exist, so the bitvector cannot also be empty).
type UnspentTransaction struct {
	outputs         map[uint32]*bt.Output
	Version         uint32
	Height          uint32
	ReferenceHeight uint32
}

type unspentTransactionOptions struct {
	tx       *bt.Tx
	existing *UnspentTransaction

	version         uint32
	referenceHeight uint32
	height          uint32

	metadataSet bool
	heightSet   bool
}

// UnspentTransactionOption configures NewUnspentTransaction.
type UnspentTransactionOption func(*unspentTransactionOptions)

// WithTx builds the record from a full transaction, copying every output as
// initially unspent. Mutually exclusive with WithExisting and WithMetadata.
func WithTx(tx *bt.Tx) UnspentTransactionOption {
	return func(o *unspentTransactionOptions) {
		o.tx = tx
	}
}

// WithExisting copies another record, metadata included. Mutually exclusive
// with WithTx and WithMetadata.
func WithExisting(u *UnspentTransaction) UnspentTransactionOption {
	return func(o *unspentTransactionOptions) {
		o.existing = u
	}
}

// WithMetadata sets the scalar metadata directly. The reference height is
// only retained when version is 2. Mutually exclusive with WithTx and
// WithExisting.
func WithMetadata(version, referenceHeight uint32) UnspentTransactionOption {
	return func(o *unspentTransactionOptions) {
		o.version = version
		o.referenceHeight = referenceHeight
		o.metadataSet = true
	}
}

// WithHeight sets the coin height. Freely combinable with any source.
func WithHeight(height uint32) UnspentTransactionOption {
	return func(o *unspentTransactionOptions) {
		o.height = height
		o.heightSet = true
	}
}

// NewUnspentTransaction builds a record from at most one source: a full
// transaction, an existing record, or explicit metadata. Supplying more
// than one source fails with a configuration error.
func NewUnspentTransaction(options ...UnspentTransactionOption) (*UnspentTransaction, error) {
	opts := &unspentTransactionOptions{version: 1}
	for _, o := range options {
		o(opts)
	}

	sources := 0
	if opts.tx != nil {
		sources++
	}

	if opts.existing != nil {
		sources++
	}

	if opts.metadataSet {
		sources++
	}

	if sources >= 2 {
		return nil, errors.NewConfigurationError("instantiate from either a transaction, another unspent transaction, or explicit metadata; choose one")
	}

	u := &UnspentTransaction{
		outputs: make(map[uint32]*bt.Output),
		Version: opts.version,
	}

	switch {
	case opts.tx != nil:
		u.Version = opts.tx.Version

		for idx, output := range opts.tx.Outputs {
			u.outputs[uint32(idx)] = output
		}

	case opts.existing != nil:
		u.Version = opts.existing.Version
		u.Height = opts.existing.Height
		u.ReferenceHeight = opts.existing.ReferenceHeight

		for idx, output := range opts.existing.outputs {
			u.outputs[idx] = output
		}

	case opts.metadataSet:
		// Reference heights exist from version 2 onwards
		if u.Version == 2 {
			u.ReferenceHeight = opts.referenceHeight
		}
	}

	if opts.heightSet {
		u.Height = opts.height
	}

	return u, nil
}

// Output returns the output stored under idx.
func (u *UnspentTransaction) Output(idx uint32) (*bt.Output, bool) {
	output, ok := u.outputs[idx]
	return output, ok
}

// AddOutput records output idx as unspent, replacing any existing entry.
func (u *UnspentTransaction) AddOutput(idx uint32, output *bt.Output) {
	u.outputs[idx] = output
}

// Spend removes output idx from the record. The caller is responsible for
// destroying the record once its last output is spent.
func (u *UnspentTransaction) Spend(idx uint32) error {
	if _, ok := u.outputs[idx]; !ok {
		return errors.NewNotFoundError("output %d is not unspent", idx)
	}

	delete(u.outputs, idx)

	return nil
}

// Len returns the number of unspent outputs retained.
func (u *UnspentTransaction) Len() int {
	return len(u.outputs)
}

// Indexes returns the retained output indexes in ascending order.
func (u *UnspentTransaction) Indexes() []uint32 {
	indexes := make([]uint32, 0, len(u.outputs))
	for idx := range u.outputs {
		indexes = append(indexes, idx)
	}

	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })

	return indexes
}

// Equal reports whether two records hold the same metadata and the same
// unspent outputs. Metadata is compared first as it's less expensive.
func (u *UnspentTransaction) Equal(other *UnspentTransaction) bool {
	if u.Height != other.Height || u.Version != other.Version {
		return false
	}

	if u.Version == 2 && u.ReferenceHeight != other.ReferenceHeight {
		return false
	}

	if len(u.outputs) != len(other.outputs) {
		return false
	}

	for idx, output := range u.outputs {
		otherOutput, ok := other.outputs[idx]
		if !ok {
			return false
		}

		if output.Satoshis != otherOutput.Satoshis {
			return false
		}

		if !bytes.Equal(*output.LockingScript, *otherOutput.LockingScript) {
			return false
		}
	}

	return true
}

// Bytes returns the canonical serialization of the record. A record with no
// retained outputs cannot be serialized.
func (u *UnspentTransaction) Bytes() ([]byte, error) {
	bitvector := new(big.Int)
	for idx := range u.outputs {
		bitvector.SetBit(bitvector, int(idx), 1)
	}

	if bitvector.Sign() == 0 {
		return nil, errors.NewInvalidStateError("cannot serialize an unspent transaction with no retained outputs")
	}

	code := bitvector.Bit(0) | bitvector.Bit(1)<<1 | bitvector.Bit(2)<<2

	overflow := serialize.LEIntBytes(new(big.Int).Rsh(bitvector, 3))

	overflowLen := len(overflow)
	if code == 0 {
		// All of outputs 0..2 are spent, so the bitvector is non-empty and
		// its length can be stored off by one
		overflowLen--
	}

	code |= uint(overflowLen) << 3

	b := serialize.VarIntBytes(uint64(u.Version))
	b = append(b, serialize.VarIntBytes(uint64(code))...)
	b = append(b, overflow...)

	for _, idx := range u.Indexes() {
		output := u.outputs[idx]

		b = append(b, serialize.VarIntBytes(compress.Amount(output.Satoshis))...)
		b = append(b, pickler.Dump(output.LockingScript)...)
	}

	b = append(b, serialize.VarIntBytes(uint64(u.Height))...)

	if u.Version == 2 {
		b = append(b, serialize.VarIntBytes(uint64(u.ReferenceHeight))...)
	}

	return b, nil
}

// NewUnspentTransactionFromReader reads one serialized record from r.
// Decoding either returns a complete record or an error, never a partial
// one; the read position of r is meaningless after a failure.
func NewUnspentTransactionFromReader(r io.Reader) (*UnspentTransaction, error) {
	u := &UnspentTransaction{
		outputs: make(map[uint32]*bt.Output),
	}

	version, err := serialize.ReadVarInt(r)
	if err != nil {
		return nil, errors.NewTxInvalidError("could not read version", err)
	}

	if version > math.MaxUint32 {
		return nil, errors.NewTxInvalidError("version %d does not fit in 32 bits", version)
	}

	u.Version = uint32(version)

	code, err := serialize.ReadVarInt(r)
	if err != nil {
		return nil, errors.NewTxInvalidError("could not read code", err)
	}

	bitvector := new(big.Int).SetUint64(code & 0x7)
	code >>= 3

	if bitvector.Sign() == 0 {
		// Length was stored off by one, see Bytes
		code++
	}

	if code > maxBitvectorBytes {
		return nil, errors.NewTxInvalidError("unspentness bitvector of %d bytes is too large", code)
	}

	if code > 0 {
		overflow, err := serialize.ReadLEInt(r, int(code))
		if err != nil {
			return nil, errors.NewTxInvalidError("could not read unspentness bitvector", err)
		}

		bitvector.Or(bitvector, overflow.Lsh(overflow, 3))
	}

	for idx := 0; idx < bitvector.BitLen(); idx++ {
		if bitvector.Bit(idx) == 0 {
			continue
		}

		amount, err := serialize.ReadVarInt(r)
		if err != nil {
			return nil, errors.NewTxInvalidError("could not read amount of output %d", idx, err)
		}

		script, err := pickler.Load(r)
		if err != nil {
			return nil, errors.NewTxInvalidError("could not read contract of output %d", idx, err)
		}

		u.outputs[uint32(idx)] = &bt.Output{
			Satoshis:      compress.DecompressAmount(amount),
			LockingScript: script,
		}
	}

	height, err := serialize.ReadVarInt(r)
	if err != nil {
		return nil, errors.NewTxInvalidError("could not read height", err)
	}

	if height > math.MaxUint32 {
		return nil, errors.NewTxInvalidError("height %d does not fit in 32 bits", height)
	}

	u.Height = uint32(height)

	if u.Version == 2 {
		referenceHeight, err := serialize.ReadVarInt(r)
		if err != nil {
			return nil, errors.NewTxInvalidError("could not read reference height", err)
		}

		if referenceHeight > math.MaxUint32 {
			return nil, errors.NewTxInvalidError("reference height %d does not fit in 32 bits", referenceHeight)
		}

		u.ReferenceHeight = uint32(referenceHeight)
	}

	return u, nil
}

// NewUnspentTransactionFromBytes builds a record from its serialization.
func NewUnspentTransactionFromBytes(b []byte) (*UnspentTransaction, error) {
	return NewUnspentTransactionFromReader(bytes.NewReader(b))
}

func (u *UnspentTransaction) String() string {
	return fmt.Sprintf("UnspentTransaction{outputs: %d, version: %d, height: %d, reference_height: %d}",
		len(u.outputs), u.Version, u.Height, u.ReferenceHeight)
}
