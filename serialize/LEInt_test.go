package serialize

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/bsv-blockchain/go-coinset/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLEIntZeroIsEmpty(t *testing.T) {
	b := LEIntBytes(big.NewInt(0))
	assert.Empty(t, b)

	n, err := ReadLEInt(bytes.NewReader(nil), 0)
	require.NoError(t, err)
	assert.Zero(t, n.Sign())
}

func TestLEIntMinimality(t *testing.T) {
	values := []int64{1, 2, 255, 256, 0x4004, 1 << 20, 1<<62 + 12345}

	for _, v := range values {
		b := LEIntBytes(big.NewInt(v))

		require.NotEmpty(t, b)
		assert.NotZero(t, b[len(b)-1], "no trailing zero byte for %d", v)

		got, err := ReadLEInt(bytes.NewReader(b), len(b))
		require.NoError(t, err)
		assert.Zero(t, got.Cmp(big.NewInt(v)))
	}
}

func TestLEIntByteOrder(t *testing.T) {
	b := LEIntBytes(big.NewInt(0x4004))
	assert.Equal(t, []byte{0x04, 0x40}, b)
}

func TestLEIntAcceptsNonMinimal(t *testing.T) {
	// 1 encoded with two trailing zero bytes
	n, err := ReadLEInt(bytes.NewReader([]byte{0x01, 0x00, 0x00}), 3)
	require.NoError(t, err)
	assert.Zero(t, n.Cmp(big.NewInt(1)))
}

func TestLEIntWiderThan64Bits(t *testing.T) {
	v := new(big.Int).Lsh(big.NewInt(1), 100) // bit 100 set

	b := LEIntBytes(v)
	require.Len(t, b, 13)

	got, err := ReadLEInt(bytes.NewReader(b), len(b))
	require.NoError(t, err)
	assert.Zero(t, got.Cmp(v))
}

func TestLEIntTruncated(t *testing.T) {
	_, err := ReadLEInt(bytes.NewReader([]byte{0x01}), 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTxInvalid))
}
