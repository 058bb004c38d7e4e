package storage

import "errors"

// Adapters wrap these with detail; match them with errors.Is.
var (
	ErrNotFound    = errors.New("storage: block not found")
	ErrInvalidCID  = errors.New("storage: invalid block cid")
	ErrCIDMismatch = errors.New("storage: block does not hash to cid")
	ErrImmutable   = errors.New("storage: stored block differs from new bytes")
	ErrNotDagCBOR  = errors.New("storage: not a dag-cbor block")
	ErrNoBackends  = errors.New("storage: no backends configured")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsIntegrity reports whether err means a store returned or held bytes that
// cannot be trusted for the requested CID.
func IsIntegrity(err error) bool {
	return errors.Is(err, ErrCIDMismatch) || errors.Is(err, ErrImmutable)
}
