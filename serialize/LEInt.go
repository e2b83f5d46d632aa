package serialize

import (
	"io"
	"math/big"

	"github.com/bsv-blockchain/go-coinset/errors"
)

// LEIntBytes returns the minimal little-endian encoding of n: the shortest
// byte string with no trailing zero byte. Zero encodes as the empty string.
// The length is not part of the encoding and must be conveyed out of band.
func LEIntBytes(n *big.Int) []byte {
	be := n.Bytes() // big-endian, minimal, empty for zero

	le := make([]byte, len(be))
	for i, b := range be {
		le[len(be)-1-i] = b
	}

	return le
}

// ReadLEInt reads exactly length little-endian bytes from r and reconstructs
// the integer. Non-minimal input (trailing zero bytes) is accepted.
func ReadLEInt(r io.Reader, length int) (*big.Int, error) {
	if length < 0 {
		return nil, errors.NewInvalidArgumentError("leint length %d is negative", length)
	}

	le := make([]byte, length)
	if _, err := io.ReadFull(r, le); err != nil {
		return nil, errors.NewTxInvalidError("could not read %d leint bytes", length, err)
	}

	be := make([]byte, len(le))
	for i, b := range le {
		be[len(le)-1-i] = b
	}

	return new(big.Int).SetBytes(be), nil
}
