package spv

import "errors"

// Error kinds returned by decoding and verification. Wrapped errors keep
// their kind, so callers should test with errors.Is.
var (
	ErrDecode             = errors.New("decode error")
	ErrMalformedProof     = errors.New("malformed merkle proof")
	ErrProofMissing       = errors.New("merkle proof not found")
	ErrTxIDMismatch       = errors.New("txid mismatch")
	ErrMerkleRootMismatch = errors.New("merkle root mismatch")
	ErrBlockHashMismatch  = errors.New("block hash mismatch")
)

var kindNames = []struct {
	err  error
	name string
}{
	{ErrDecode, "DecodeError"},
	{ErrMalformedProof, "MalformedProof"},
	{ErrProofMissing, "ProofMissing"},
	{ErrTxIDMismatch, "TxIdMismatch"},
	{ErrMerkleRootMismatch, "MerkleRootMismatch"},
	{ErrBlockHashMismatch, "BlockHashMismatch"},
}

// Classify returns the kind name of err, or "" when err is nil or not one of
// the package's error kinds.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kindNames {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return ""
}
