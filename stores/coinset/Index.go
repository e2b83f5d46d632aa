// Package coinset binds the coin-set record types to the patricia store,
// giving two indexed views over the same logical coin set: one keyed by
// transaction id, one keyed by claiming contract. All mutation, lookup,
// iteration and digest semantics are those of the underlying tree.
package coinset

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-coinset/errors"
	"github.com/bsv-blockchain/go-coinset/model"
	"github.com/bsv-blockchain/go-coinset/stores/patricia"
)

// TxIDIndex answers "what is unspent in transaction T". Keys are
// transaction hashes, values are pruned transaction records.
type TxIDIndex struct {
	*patricia.Tree[chainhash.Hash, *model.UnspentTransaction]
}

func NewTxIDIndex() *TxIDIndex {
	return &TxIDIndex{
		Tree: patricia.NewTree[chainhash.Hash, *model.UnspentTransaction](
			func(hash chainhash.Hash) []byte {
				return hash.CloneBytes()
			},
			func(u *model.UnspentTransaction) []byte {
				// Empty records are rejected by Set, so this cannot fail
				b, _ := u.Bytes()
				return b
			},
		),
	}
}

// Set stores the record under its transaction hash. A record with no
// retained outputs must be deleted from the index, never stored.
//
// The index keeps its own copy: the tree caches node digests against the
// value bytes captured here, so spending outputs on the caller's record
// afterwards does not disturb the index. Updates go through Set again.
func (i *TxIDIndex) Set(hash chainhash.Hash, u *model.UnspentTransaction) error {
	if u.Len() == 0 {
		return errors.NewInvalidStateError("refusing to index an unspent transaction with no retained outputs")
	}

	stored, err := model.NewUnspentTransaction(model.WithExisting(u))
	if err != nil {
		return err
	}

	return i.Tree.Set(hash, stored)
}

// ContractIndex answers "what is unspent and claimable by contract C"
// without scanning the transaction index. Keys are contract outpoints,
// values are per-output records.
type ContractIndex struct {
	*patricia.Tree[*model.ContractOutPoint, *model.OutputData]
}

func NewContractIndex() *ContractIndex {
	return &ContractIndex{
		Tree: patricia.NewTree[*model.ContractOutPoint, *model.OutputData](
			(*model.ContractOutPoint).Bytes,
			(*model.OutputData).Bytes,
		),
	}
}

// Set stores a copy of data under the outpoint, for the same reason
// TxIDIndex.Set copies: cached tree digests must not go stale when the
// caller mutates their record afterwards.
func (i *ContractIndex) Set(outpoint *model.ContractOutPoint, data *model.OutputData) error {
	stored := *data
	return i.Tree.Set(outpoint, &stored)
}
