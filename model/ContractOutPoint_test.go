package model

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-coinset/errors"
	"github.com/bsv-blockchain/go-coinset/serialize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOutPoint(t *testing.T, index uint32) *ContractOutPoint {
	t.Helper()

	hash160, err := hex.DecodeString("816115944e077fe7c803cfa57f29b36bf87c1d35")
	require.NoError(t, err)

	contract, err := bscript.NewP2PKHFromPubKeyHash(hash160)
	require.NoError(t, err)

	return &ContractOutPoint{
		Contract: contract,
		Hash:     chainhash.DoubleHashH([]byte("outpoint test")),
		Index:    index,
	}
}

func TestContractOutPointRoundTrip(t *testing.T) {
	for _, index := range []uint32{0, 1, 16, 600, 1 << 20} {
		c := testOutPoint(t, index)

		got, err := NewContractOutPointFromBytes(c.Bytes())
		require.NoError(t, err)

		assert.True(t, c.Equal(got))
		assert.Equal(t, index, got.Index)
		assert.True(t, c.Hash.IsEqual(&got.Hash))
	}
}

func TestContractOutPointLayout(t *testing.T) {
	c := testOutPoint(t, 5)
	b := c.Bytes()

	// compressed P2PKH contract: tag byte then the pubkey hash
	require.Equal(t, 1+20+32+1, len(b))
	assert.Equal(t, byte(0x00), b[0])
	assert.Equal(t, "816115944e077fe7c803cfa57f29b36bf87c1d35", hex.EncodeToString(b[1:21]))
	assert.Equal(t, c.Hash[:], b[21:53])
	assert.Equal(t, byte(0x05), b[53])
}

// The compressed contract is self terminating, so an outpoint can be read
// from a stream carrying further records behind it.
func TestContractOutPointFromStream(t *testing.T) {
	first := testOutPoint(t, 1)
	second := testOutPoint(t, 2)

	r := bytes.NewReader(append(first.Bytes(), second.Bytes()...))

	got1, err := NewContractOutPointFromReader(r)
	require.NoError(t, err)
	assert.True(t, first.Equal(got1))

	got2, err := NewContractOutPointFromReader(r)
	require.NoError(t, err)
	assert.True(t, second.Equal(got2))
}

func TestContractOutPointRawContract(t *testing.T) {
	contract := bscript.Script([]byte{bscript.OpRETURN, 0x03, 0xaa, 0xbb, 0xcc})

	c := &ContractOutPoint{
		Contract: &contract,
		Hash:     chainhash.DoubleHashH([]byte("raw")),
		Index:    0,
	}

	got, err := NewContractOutPointFromBytes(c.Bytes())
	require.NoError(t, err)
	assert.True(t, c.Equal(got))
}

func TestContractOutPointEqual(t *testing.T) {
	base := testOutPoint(t, 3)

	assert.True(t, base.Equal(testOutPoint(t, 3)))
	assert.False(t, base.Equal(testOutPoint(t, 4)))

	differentHash := testOutPoint(t, 3)
	differentHash.Hash = chainhash.DoubleHashH([]byte("other"))
	assert.False(t, base.Equal(differentHash))

	differentContract := testOutPoint(t, 3)
	otherScript := bscript.Script([]byte{bscript.OpRETURN})
	differentContract.Contract = &otherScript
	assert.False(t, base.Equal(differentContract))
}

func TestContractOutPointRejectsOversizedIndex(t *testing.T) {
	b := testOutPoint(t, 0).Bytes()

	// index 0 encoded as the single trailing zero byte
	require.Equal(t, byte(0x00), b[len(b)-1])

	tampered := append(b[:len(b)-1], serialize.VarIntBytes(1<<32)...)

	_, err := NewContractOutPointFromBytes(tampered)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTxInvalid))
}

func TestContractOutPointTruncated(t *testing.T) {
	b := testOutPoint(t, 7).Bytes()

	for cut := 0; cut < len(b); cut++ {
		_, err := NewContractOutPointFromBytes(b[:cut])
		require.Error(t, err, "truncation at %d must fail", cut)
		assert.True(t, errors.Is(err, errors.ErrTxInvalid))
	}
}
