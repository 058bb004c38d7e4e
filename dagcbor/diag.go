package dagcbor

import (
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"
)

var (
	decMode  cbor.DecMode
	diagMode cbor.DiagMode
)

func init() {
	var err error
	decMode, err = cbor.DecOptions{
		MaxNestedLevels:  math.MaxUint16,
		MaxArrayElements: math.MaxInt32,
		MaxMapPairs:      math.MaxInt32,
		IndefLength:      cbor.IndefLengthForbidden,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	diagMode, err = cbor.DiagOptions{
		ByteStringEncoding: cbor.ByteStringBase16Encoding,
		MaxNestedLevels:    math.MaxUint16,
		MaxArrayElements:   math.MaxInt32,
		MaxMapPairs:        math.MaxInt32,
	}.DiagMode()
	if err != nil {
		panic(err)
	}
}

// Wellformed checks that data is exactly one well-formed CBOR data item
// without indefinite-length encodings. It does not check DAG-CBOR's
// stricter rules (canonical key order, tag 42 only).
func Wellformed(data []byte) error {
	return decMode.Wellformed(data)
}

// linkTag is the only CBOR tag DAG-CBOR admits.
const linkTag = 42

// checkDataModel rejects well-formed CBOR that falls outside the DAG-CBOR
// data model: tags other than 42, negative integers below math.MinInt64,
// and simple values other than false, true and null. data must already
// pass Wellformed.
func checkDataModel(data []byte) error {
	_, err := checkItem(data, 0)
	return err
}

func checkItem(data []byte, off int) (int, error) {
	major, info, arg, n := itemHead(data[off:])
	off += n
	switch major {
	case cborNegInt:
		if arg > math.MaxInt64 {
			return 0, fmt.Errorf("negative integer -1-%d out of range of int64", arg)
		}
	case cborBytes, cborText:
		off += int(arg)
	case cborArray, cborMap:
		items := arg
		if major == cborMap {
			items *= 2
		}
		for i := uint64(0); i < items; i++ {
			var err error
			if off, err = checkItem(data, off); err != nil {
				return 0, err
			}
		}
	case cborTag:
		if arg != linkTag {
			return 0, fmt.Errorf("unsupported tag %d: only tag %d is allowed", arg, linkTag)
		}
		return checkItem(data, off)
	case cborSimple:
		switch info {
		case 20, 21, 22, 25, 26, 27:
		default:
			return 0, fmt.Errorf("unsupported simple value %d", arg)
		}
	}
	return off, nil
}

const (
	cborUint = iota
	cborNegInt
	cborBytes
	cborText
	cborArray
	cborMap
	cborTag
	cborSimple
)

// itemHead splits the initial byte and argument of a definite-length item.
func itemHead(b []byte) (major, info byte, arg uint64, n int) {
	major, info = b[0]>>5, b[0]&0x1f
	switch {
	case info < 24:
		return major, info, uint64(info), 1
	case info == 24:
		return major, info, uint64(b[1]), 2
	case info == 25:
		n = 3
	case info == 26:
		n = 5
	default:
		n = 9
	}
	for _, c := range b[1:n] {
		arg = arg<<8 | uint64(c)
	}
	return major, info, arg, n
}

// Diagnose renders data in CBOR extended diagnostic notation
// (RFC 8949 section 8), e.g. {"cid": {"42": 42(h'0001...')}}.
func Diagnose(data []byte) (string, error) {
	if len(data) == 0 {
		return "", decodeError(errEmpty)
	}
	s, err := diagMode.Diagnose(data)
	if err != nil {
		return "", decodeError(err)
	}
	return s, nil
}
