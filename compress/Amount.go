// Package compress implements the reversible codecs of the pruned coin-set
// wire format: satoshi amount compression and locking script compression.
package compress

// Amount compresses a satoshi amount. The scheme exploits that real amounts
// are usually round numbers: trailing decimal zeros are folded into a small
// exponent so typical values fit in one or two varint bytes. The mapping is
// a bijection over the full amount domain.
func Amount(n uint64) uint64 {
	if n == 0 {
		return 0
	}

	var e uint64
	for n%10 == 0 && e < 9 {
		n /= 10
		e++
	}

	if e < 9 {
		d := n % 10
		n /= 10

		return 1 + (n*9+d-1)*10 + e
	}

	return 1 + (n-1)*10 + 9
}

// DecompressAmount is the inverse of Amount.
func DecompressAmount(x uint64) uint64 {
	if x == 0 {
		return 0
	}

	x--

	e := x % 10
	x /= 10

	var n uint64

	if e < 9 {
		d := x%9 + 1
		x /= 9
		n = x*10 + d
	} else {
		n = x + 1
	}

	for ; e > 0; e-- {
		n *= 10
	}

	return n
}
