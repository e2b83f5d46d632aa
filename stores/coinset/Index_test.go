package coinset

import (
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-coinset/errors"
	"github.com/bsv-blockchain/go-coinset/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContract(t *testing.T) *bscript.Script {
	t.Helper()

	hash160, err := hex.DecodeString("816115944e077fe7c803cfa57f29b36bf87c1d35")
	require.NoError(t, err)

	script, err := bscript.NewP2PKHFromPubKeyHash(hash160)
	require.NoError(t, err)

	return script
}

func testRecord(t *testing.T, height uint32, indexes ...uint32) *model.UnspentTransaction {
	t.Helper()

	u, err := model.NewUnspentTransaction(model.WithHeight(height))
	require.NoError(t, err)

	for _, idx := range indexes {
		u.AddOutput(idx, &bt.Output{
			Satoshis:      uint64(idx+1) * 546,
			LockingScript: testContract(t),
		})
	}

	return u
}

func TestTxIDIndexSetGetDelete(t *testing.T) {
	index := NewTxIDIndex()

	hash := chainhash.DoubleHashH([]byte("tx one"))
	record := testRecord(t, 100, 0, 2)

	require.NoError(t, index.Set(hash, record))
	require.Equal(t, 1, index.Len())

	got, ok := index.Get(hash)
	require.True(t, ok)
	assert.True(t, record.Equal(got))

	_, ok = index.Get(chainhash.DoubleHashH([]byte("tx two")))
	assert.False(t, ok)

	require.NoError(t, index.Delete(hash))
	assert.Equal(t, 0, index.Len())

	_, ok = index.Get(hash)
	assert.False(t, ok)
}

func TestTxIDIndexReplacesRecord(t *testing.T) {
	index := NewTxIDIndex()
	hash := chainhash.DoubleHashH([]byte("tx"))

	require.NoError(t, index.Set(hash, testRecord(t, 100, 0, 1)))
	before := index.RootHash()

	// spend output 1 and store the narrowed record under the same key
	narrowed := testRecord(t, 100, 0)
	require.NoError(t, index.Set(hash, narrowed))

	assert.Equal(t, 1, index.Len())
	assert.NotEqual(t, before, index.RootHash())

	got, ok := index.Get(hash)
	require.True(t, ok)
	assert.Equal(t, []uint32{0}, got.Indexes())
}

// The indexes hold snapshots: mutating a record after Set must not change
// what is stored or what the root digest commits to.
func TestIndexesAreInsulatedFromLaterMutation(t *testing.T) {
	txIndex := NewTxIDIndex()
	hash := chainhash.DoubleHashH([]byte("tx"))

	record := testRecord(t, 100, 0, 1)
	require.NoError(t, txIndex.Set(hash, record))

	digest := txIndex.RootHash()

	// empty the caller's record in place
	require.NoError(t, record.Spend(0))
	require.NoError(t, record.Spend(1))

	got, ok := txIndex.Get(hash)
	require.True(t, ok)
	assert.Equal(t, []uint32{0, 1}, got.Indexes())
	assert.Equal(t, digest, txIndex.RootHash())

	contractIndex := NewContractIndex()
	outpoint := &model.ContractOutPoint{Contract: testContract(t), Hash: hash, Index: 0}
	data := &model.OutputData{Version: 1, Amount: 546, Height: 100}

	require.NoError(t, contractIndex.Set(outpoint, data))

	contractDigest := contractIndex.RootHash()
	data.Amount = 9999

	stored, ok := contractIndex.Get(outpoint)
	require.True(t, ok)
	assert.Equal(t, uint64(546), stored.Amount)
	assert.Equal(t, contractDigest, contractIndex.RootHash())
}

func TestTxIDIndexRejectsEmptyRecord(t *testing.T) {
	index := NewTxIDIndex()

	empty, err := model.NewUnspentTransaction()
	require.NoError(t, err)

	err = index.Set(chainhash.DoubleHashH([]byte("tx")), empty)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidState))
	assert.Equal(t, 0, index.Len())
}

func TestTxIDIndexRootHashIsOrderIndependent(t *testing.T) {
	hashes := make([]chainhash.Hash, 8)
	for i := range hashes {
		hashes[i] = chainhash.DoubleHashH([]byte(fmt.Sprintf("tx %d", i)))
	}

	forward := NewTxIDIndex()
	for i, h := range hashes {
		require.NoError(t, forward.Set(h, testRecord(t, uint32(i), 0)))
	}

	backward := NewTxIDIndex()
	for i := len(hashes) - 1; i >= 0; i-- {
		require.NoError(t, backward.Set(hashes[i], testRecord(t, uint32(i), 0)))
	}

	assert.Equal(t, forward.RootHash(), backward.RootHash())
}

func TestTxIDIndexWalkVisitsAllRecords(t *testing.T) {
	index := NewTxIDIndex()

	want := map[chainhash.Hash]*model.UnspentTransaction{}
	for i := 0; i < 5; i++ {
		h := chainhash.DoubleHashH([]byte(fmt.Sprintf("walk %d", i)))
		r := testRecord(t, uint32(i), 0)
		want[h] = r
		require.NoError(t, index.Set(h, r))
	}

	seen := 0
	err := index.Walk(func(hash chainhash.Hash, u *model.UnspentTransaction) error {
		seen++
		require.Contains(t, want, hash)
		assert.True(t, want[hash].Equal(u))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, len(want), seen)
}

func TestContractIndexSetGetDelete(t *testing.T) {
	index := NewContractIndex()

	outpoint := &model.ContractOutPoint{
		Contract: testContract(t),
		Hash:     chainhash.DoubleHashH([]byte("tx")),
		Index:    4,
	}
	data := &model.OutputData{Version: 1, Amount: 234925952, Height: 120891}

	require.NoError(t, index.Set(outpoint, data))
	require.Equal(t, 1, index.Len())

	got, ok := index.Get(outpoint)
	require.True(t, ok)
	assert.True(t, data.Equal(got))

	// a structurally equal key locates the same entry
	dup := &model.ContractOutPoint{
		Contract: testContract(t),
		Hash:     outpoint.Hash,
		Index:    4,
	}
	got, ok = index.Get(dup)
	require.True(t, ok)
	assert.True(t, data.Equal(got))

	require.NoError(t, index.Delete(outpoint))
	assert.Equal(t, 0, index.Len())
}

func TestContractIndexSeparatesOutputsOfOneTransaction(t *testing.T) {
	index := NewContractIndex()
	hash := chainhash.DoubleHashH([]byte("tx"))

	for _, idx := range []uint32{0, 4, 16} {
		outpoint := &model.ContractOutPoint{Contract: testContract(t), Hash: hash, Index: idx}
		require.NoError(t, index.Set(outpoint, &model.OutputData{Version: 1, Amount: uint64(idx + 1), Height: 7}))
	}

	assert.Equal(t, 3, index.Len())

	got, ok := index.Get(&model.ContractOutPoint{Contract: testContract(t), Hash: hash, Index: 16})
	require.True(t, ok)
	assert.Equal(t, uint64(17), got.Amount)
}

func TestIndexesShareDigestSemantics(t *testing.T) {
	txIndex := NewTxIDIndex()
	contractIndex := NewContractIndex()

	emptyTx := txIndex.RootHash()
	emptyContract := contractIndex.RootHash()
	assert.Equal(t, emptyTx, emptyContract, "empty trees share the zero digest")

	hash := chainhash.DoubleHashH([]byte("tx"))
	require.NoError(t, txIndex.Set(hash, testRecord(t, 1, 0)))

	outpoint := &model.ContractOutPoint{Contract: testContract(t), Hash: hash, Index: 0}
	require.NoError(t, contractIndex.Set(outpoint, &model.OutputData{Version: 1, Amount: 546, Height: 1}))

	assert.NotEqual(t, emptyTx, txIndex.RootHash())
	assert.NotEqual(t, emptyContract, contractIndex.RootHash())

	require.NoError(t, txIndex.Delete(hash))
	require.NoError(t, contractIndex.Delete(outpoint))

	assert.Equal(t, emptyTx, txIndex.RootHash())
	assert.Equal(t, emptyContract, contractIndex.RootHash())
}
