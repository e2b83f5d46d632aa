package compress

import (
	"io"

	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-coinset/errors"
	"github.com/bsv-blockchain/go-coinset/serialize"
	"github.com/libsv/go-bk/bec"
)

// numSpecialScripts is the number of reserved nSize values below which the
// script is one of the special templates rather than raw bytes.
const numSpecialScripts = 6

// maxScriptBytes bounds the raw script length read from the wire so that a
// malformed size prefix cannot force a huge allocation.
const maxScriptBytes = 1 << 26

// ScriptCodec serializes locking scripts in their compressed wire form.
// Common script templates collapse to 21 or 33 bytes:
//
//	nSize 0: pay-to-pubkey-hash, followed by the 20 byte hash160
//	nSize 1: pay-to-script-hash, followed by the 20 byte hash160
//	nSize 2, 3: pay-to-compressed-pubkey, nSize is the key prefix, followed
//	            by the 32 byte x coordinate
//	nSize 4, 5: pay-to-uncompressed-pubkey, stored compressed; nSize-2 is
//	            the implied key prefix, followed by the 32 byte x coordinate
//
// Anything else is emitted as varint(len+6) followed by the raw script.
// The codec holds no state and may be shared freely across goroutines.
type ScriptCodec struct{}

func NewScriptCodec() *ScriptCodec {
	return &ScriptCodec{}
}

// Dump returns the compressed encoding of the script. The encoding is
// self-terminating, so records can be concatenated without length prefixes.
func (c *ScriptCodec) Dump(script *bscript.Script) []byte {
	s := []byte(*script)

	switch {
	case script.IsP2PKH():
		b := make([]byte, 0, 21)
		b = append(b, 0x00)

		return append(b, s[3:23]...)

	case script.IsP2SH():
		b := make([]byte, 0, 21)
		b = append(b, 0x01)

		return append(b, s[2:22]...)

	case isCompressedP2PK(s):
		b := make([]byte, 0, 33)
		b = append(b, s[1]) // key prefix 0x02 or 0x03

		return append(b, s[2:34]...)

	case isUncompressedP2PK(s):
		// Store only the x coordinate; the parity of y goes into nSize
		b := make([]byte, 0, 33)
		b = append(b, 0x04|(s[65]&0x01))

		return append(b, s[2:34]...)
	}

	b := serialize.VarIntBytes(uint64(len(s)) + numSpecialScripts)

	return append(b, s...)
}

// Load reads one compressed script from r, undoing Dump. Uncompressed
// pubkey templates are reconstructed by decompressing the stored point.
func (c *ScriptCodec) Load(r io.Reader) (*bscript.Script, error) {
	nSize, err := serialize.ReadVarInt(r)
	if err != nil {
		return nil, errors.NewTxInvalidError("could not read script size", err)
	}

	switch nSize {
	case 0x00, 0x01:
		var data [20]byte
		if _, err = io.ReadFull(r, data[:]); err != nil {
			return nil, errors.NewTxInvalidError("could not read script hash160", err)
		}

		if nSize == 0x00 {
			return bscript.NewP2PKHFromPubKeyHash(data[:])
		}

		s := make([]byte, 0, 23)
		s = append(s, bscript.OpHASH160, 0x14)
		s = append(s, data[:]...)
		s = append(s, bscript.OpEQUAL)

		script := bscript.Script(s)

		return &script, nil

	case 0x02, 0x03:
		var data [32]byte
		if _, err = io.ReadFull(r, data[:]); err != nil {
			return nil, errors.NewTxInvalidError("could not read pubkey x coordinate", err)
		}

		s := make([]byte, 0, 35)
		s = append(s, 0x21, byte(nSize))
		s = append(s, data[:]...)
		s = append(s, bscript.OpCHECKSIG)

		script := bscript.Script(s)

		return &script, nil

	case 0x04, 0x05:
		var data [32]byte
		if _, err = io.ReadFull(r, data[:]); err != nil {
			return nil, errors.NewTxInvalidError("could not read pubkey x coordinate", err)
		}

		compressed := make([]byte, 0, 33)
		compressed = append(compressed, byte(nSize)-2)
		compressed = append(compressed, data[:]...)

		pubKey, err := bec.ParsePubKey(compressed, bec.S256())
		if err != nil {
			return nil, errors.NewTxInvalidError("could not decompress pubkey", err)
		}

		s := make([]byte, 0, 67)
		s = append(s, 0x41)
		s = append(s, pubKey.SerialiseUncompressed()...)
		s = append(s, bscript.OpCHECKSIG)

		script := bscript.Script(s)

		return &script, nil
	}

	if nSize-numSpecialScripts > maxScriptBytes {
		return nil, errors.NewTxInvalidError("raw script of %d bytes is too large", nSize-numSpecialScripts)
	}

	raw := make([]byte, nSize-numSpecialScripts)
	if _, err = io.ReadFull(r, raw); err != nil {
		return nil, errors.NewTxInvalidError("could not read %d raw script bytes", len(raw), err)
	}

	script := bscript.Script(raw)

	return &script, nil
}

// isCompressedP2PK matches <33 byte compressed pubkey> OP_CHECKSIG.
func isCompressedP2PK(s []byte) bool {
	return len(s) == 35 &&
		s[0] == 0x21 &&
		(s[1] == 0x02 || s[1] == 0x03) &&
		s[34] == bscript.OpCHECKSIG
}

// isUncompressedP2PK matches <65 byte uncompressed pubkey> OP_CHECKSIG. The
// point is parsed so that an invalid key never reaches the compressed form,
// which could not be decompressed again.
func isUncompressedP2PK(s []byte) bool {
	if len(s) != 67 || s[0] != 0x41 || s[1] != 0x04 || s[66] != bscript.OpCHECKSIG {
		return false
	}

	_, err := bec.ParsePubKey(s[1:66], bec.S256())

	return err == nil
}
