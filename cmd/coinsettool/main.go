// Command coinsettool decodes serialized unspent transaction records and
// builds the two coin-set indexes from a snapshot file.
//
// Usage:
//
//	coinsettool decode <recordHex | @filename>
//	coinsettool index <filename>
//
// The index input holds one record per line: the transaction id in hex,
// whitespace, then the serialized record in hex. Lines starting with '#'
// are skipped.
package main

import (
	"bufio"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-coinset/errors"
	"github.com/bsv-blockchain/go-coinset/model"
	"github.com/bsv-blockchain/go-coinset/stores/coinset"
	"github.com/bsv-blockchain/go-coinset/ulogger"
)

var verbose bool

func usage(msg string) {
	if msg != "" {
		fmt.Printf("Error: %s\n\n", msg)
	}

	fmt.Printf("Usage: coinsettool [-verbose] decode <recordHex | @filename>\n")
	fmt.Printf("       coinsettool [-verbose] index <filename>\n\n")

	os.Exit(1)
}

func main() {
	flag.BoolVar(&verbose, "verbose", false, "verbose output")
	flag.Parse()

	if len(flag.Args()) != 2 {
		usage("command and argument required")
	}

	logger := ulogger.New("coinsettool")

	var err error

	switch flag.Arg(0) {
	case "decode":
		err = decode(flag.Arg(1))
	case "index":
		err = buildIndexes(logger, flag.Arg(1))
	default:
		usage(fmt.Sprintf("unknown command %q", flag.Arg(0)))
	}

	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
}

func decode(arg string) error {
	recordHex := arg

	if strings.HasPrefix(arg, "@") {
		b, err := os.ReadFile(arg[1:])
		if err != nil {
			return errors.NewProcessingError("error reading file", err)
		}

		recordHex = strings.TrimSpace(string(b))
	}

	b, err := hex.DecodeString(recordHex)
	if err != nil {
		return errors.NewInvalidArgumentError("record is not valid hex", err)
	}

	u, err := model.NewUnspentTransactionFromBytes(b)
	if err != nil {
		return errors.NewProcessingError("error decoding record", err)
	}

	fmt.Printf("%v\n", u)

	if verbose {
		for _, idx := range u.Indexes() {
			output, _ := u.Output(idx)
			fmt.Printf("%10d: %d satoshis, script %x\n", idx, output.Satoshis, *output.LockingScript)
		}
	}

	return nil
}

func buildIndexes(logger ulogger.Logger, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.NewProcessingError("error opening file", err)
	}
	defer f.Close()

	logger.Infof("Reading snapshot %s", path)

	txIndex := coinset.NewTxIDIndex()
	contractIndex := coinset.NewContractIndex()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	var line int

	for scanner.Scan() {
		line++

		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) != 2 {
			return errors.NewInvalidArgumentError("line %d: expected transaction id and record", line)
		}

		hash, err := chainhash.NewHashFromStr(fields[0])
		if err != nil {
			return errors.NewInvalidArgumentError("line %d: invalid transaction id", line, err)
		}

		b, err := hex.DecodeString(fields[1])
		if err != nil {
			return errors.NewInvalidArgumentError("line %d: record is not valid hex", line, err)
		}

		u, err := model.NewUnspentTransactionFromBytes(b)
		if err != nil {
			return errors.NewProcessingError("line %d: error decoding record", line, err)
		}

		if err := txIndex.Set(*hash, u); err != nil {
			return errors.NewProcessingError("line %d: error indexing record", line, err)
		}

		for _, idx := range u.Indexes() {
			output, _ := u.Output(idx)

			outpoint := &model.ContractOutPoint{
				Contract: output.LockingScript,
				Hash:     *hash,
				Index:    idx,
			}

			data := &model.OutputData{
				Version: u.Version,
				Amount:  output.Satoshis,
				Height:  u.Height,
			}
			if u.Version == 2 {
				data.ReferenceHeight = uint64(u.ReferenceHeight)
			}

			if err := contractIndex.Set(outpoint, data); err != nil {
				return errors.NewProcessingError("line %d: error indexing output %d", line, idx, err)
			}
		}

		if verbose {
			logger.Debugf("indexed %s with %d outputs", hash, u.Len())
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.NewProcessingError("error reading snapshot", err)
	}

	fmt.Printf("transactions indexed:  %d\n", txIndex.Len())
	fmt.Printf("outputs indexed:       %d\n", contractIndex.Len())
	fmt.Printf("transaction root hash: %s\n", txIndex.RootHash())
	fmt.Printf("contract root hash:    %s\n", contractIndex.RootHash())

	return nil
}
