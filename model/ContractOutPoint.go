package model

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-coinset/errors"
	"github.com/bsv-blockchain/go-coinset/serialize"
)

// ContractOutPoint identifies one output self-descriptively: by the
// contract entitled to spend it, not just by transaction and index. It is
// the key type of the contract index.
type ContractOutPoint struct {
	Contract *bscript.Script
	Hash     chainhash.Hash
	Index    uint32
}

// Bytes returns the compressed contract, the transaction hash and the
// varint output index, concatenated.
func (c *ContractOutPoint) Bytes() []byte {
	b := pickler.Dump(c.Contract)
	b = append(b, c.Hash[:]...)

	return append(b, serialize.VarIntBytes(uint64(c.Index))...)
}

// NewContractOutPointFromReader reads one serialized outpoint from r.
func NewContractOutPointFromReader(r io.Reader) (*ContractOutPoint, error) {
	c := &ContractOutPoint{}

	contract, err := pickler.Load(r)
	if err != nil {
		return nil, errors.NewTxInvalidError("could not read contract", err)
	}

	c.Contract = contract

	if _, err = io.ReadFull(r, c.Hash[:]); err != nil {
		return nil, errors.NewTxInvalidError("could not read transaction hash", err)
	}

	index, err := serialize.ReadVarInt(r)
	if err != nil {
		return nil, errors.NewTxInvalidError("could not read output index", err)
	}

	if index > math.MaxUint32 {
		return nil, errors.NewTxInvalidError("output index %d does not fit in 32 bits", index)
	}

	c.Index = uint32(index)

	return c, nil
}

// NewContractOutPointFromBytes builds an outpoint from its serialization.
func NewContractOutPointFromBytes(b []byte) (*ContractOutPoint, error) {
	return NewContractOutPointFromReader(bytes.NewReader(b))
}

// Equal reports whether two outpoints reference the same output.
func (c *ContractOutPoint) Equal(other *ContractOutPoint) bool {
	return c.Index == other.Index &&
		c.Hash.IsEqual(&other.Hash) &&
		bytes.Equal(*c.Contract, *other.Contract)
}

func (c *ContractOutPoint) String() string {
	return fmt.Sprintf("ContractOutPoint{contract: %x, hash: %s, index: %d}",
		[]byte(*c.Contract), c.Hash.String(), c.Index)
}
