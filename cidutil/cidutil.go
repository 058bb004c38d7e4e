package cidutil

import (
	"crypto/sha256"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"golang.org/x/crypto/sha3"
)

// HashAlg names the multihash function used for block CIDs.
type HashAlg string

const (
	SHA2_256 HashAlg = "sha2-256"
	SHA3_256 HashAlg = "sha3-256"
)

// DefaultHashAlg is used when a caller does not pick one.
const DefaultHashAlg = SHA2_256

// ParseHashAlg accepts "" (default), "sha2-256" and "sha3-256".
func ParseHashAlg(s string) (HashAlg, error) {
	switch HashAlg(s) {
	case "":
		return DefaultHashAlg, nil
	case SHA2_256, SHA3_256:
		return HashAlg(s), nil
	default:
		return "", fmt.Errorf("cidutil: unsupported hash %q", s)
	}
}

func (a HashAlg) code() (uint64, error) {
	switch a {
	case SHA2_256, "":
		return multihash.SHA2_256, nil
	case SHA3_256:
		return multihash.SHA3_256, nil
	default:
		return 0, fmt.Errorf("cidutil: unsupported hash %q", string(a))
	}
}

func (a HashAlg) digest(data []byte) []byte {
	if a == SHA3_256 {
		sum := sha3.Sum256(data)
		return sum[:]
	}
	sum := sha256.Sum256(data)
	return sum[:]
}

// ParseIdentifier returns the parsed CID when s is a syntactically valid
// content identifier string (CIDv0 base58btc or multibase CIDv1).
// It never fails: anything else is reported as not an identifier.
func ParseIdentifier(s string) (cid.Cid, bool) {
	if s == "" {
		return cid.Undef, false
	}
	id, err := cid.Decode(s)
	if err != nil || !id.Defined() {
		return cid.Undef, false
	}
	return id, true
}

// BlockCID returns the CIDv1 (dag-cbor codec) of an encoded block.
func BlockCID(data []byte, alg HashAlg) (cid.Cid, error) {
	code, err := alg.code()
	if err != nil {
		return cid.Undef, err
	}
	mh, err := multihash.Encode(alg.digest(data), code)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.DagCBOR, mh), nil
}

// HashAlgOf reports which supported hash function a CID was built with.
func HashAlgOf(id cid.Cid) (HashAlg, error) {
	if !id.Defined() {
		return "", fmt.Errorf("cidutil: undefined cid")
	}
	switch id.Prefix().MhType {
	case multihash.SHA2_256:
		return SHA2_256, nil
	case multihash.SHA3_256:
		return SHA3_256, nil
	default:
		return "", fmt.Errorf("cidutil: unsupported multihash 0x%x", id.Prefix().MhType)
	}
}

// Matches reports whether data hashes to id under id's own prefix.
//
// Only dag-cbor CIDv1 identifiers with a supported multihash are accepted.
func Matches(id cid.Cid, data []byte) (bool, error) {
	if !id.Defined() {
		return false, fmt.Errorf("cidutil: undefined cid")
	}
	p := id.Prefix()
	if p.Version != 1 || p.Codec != cid.DagCBOR {
		return false, fmt.Errorf("cidutil: expected dag-cbor CIDv1, got %s", id)
	}
	alg, err := HashAlgOf(id)
	if err != nil {
		return false, err
	}
	got, err := BlockCID(data, alg)
	if err != nil {
		return false, err
	}
	return got.Equals(id), nil
}
