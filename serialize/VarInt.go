// Package serialize implements the primitive integer codecs of the pruned
// coin-set wire format: the variable-length unsigned integer encoding and
// the minimal little-endian integer encoding.
//
// The varint here is NOT the P2P CompactSize encoding. It is the base-128
// encoding used for compact coin storage: most significant group first, the
// high bit of every byte except the last marks continuation, and every byte
// after the first is biased by -1 on encode. The encoding of every integer
// is unique and self-terminating.
package serialize

import (
	"io"
	"math"

	"github.com/bsv-blockchain/go-coinset/errors"
)

// VarIntBytes returns the minimal varint encoding of n.
func VarIntBytes(n uint64) []byte {
	// Worst case 10 bytes for a 64-bit value
	tmp := make([]byte, 0, 10)

	for {
		b := byte(n & 0x7f)
		if len(tmp) > 0 {
			b |= 0x80
		}

		tmp = append(tmp, b)

		if n <= 0x7f {
			break
		}

		n = (n >> 7) - 1
	}

	// The groups were produced least significant first, the wire wants the
	// most significant group first
	out := make([]byte, len(tmp))
	for i, b := range tmp {
		out[len(tmp)-1-i] = b
	}

	return out
}

// ReadVarInt reads one varint from r. It fails on truncated input and on
// values that do not fit in 64 bits.
func ReadVarInt(r io.Reader) (uint64, error) {
	var (
		n   uint64
		buf [1]byte
	)

	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, errors.NewTxInvalidError("could not read varint byte", err)
		}

		c := buf[0]

		if n > math.MaxUint64>>7 {
			return 0, errors.NewTxInvalidError("varint is too large")
		}

		n = n<<7 | uint64(c&0x7f)

		if c&0x80 == 0 {
			return n, nil
		}

		if n == math.MaxUint64 {
			return 0, errors.NewTxInvalidError("varint is too large")
		}

		n++
	}
}
