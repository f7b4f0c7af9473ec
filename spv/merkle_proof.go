// Package spv implements simplified payment verification for BSV
// transactions: Merkle inclusion proofs, their binary and JSON encodings, and
// transactions that travel together with their proof.
package spv

import (
	"bytes"

	"github.com/bsv-blockchain/go-sdk/block"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/pkg/errors"
)

// MerkleProof proves that a transaction is included in a block.
//
// A proof is immutable once constructed. The Merkle root is derived from the
// leaf index and the hash path when the proof is built and never changes, so
// a new proof has to be constructed to describe a different path.
type MerkleProof struct {
	blockHash  chainhash.Hash
	txIndex    uint64
	hashes     []chainhash.Hash
	merkleRoot chainhash.Hash
}

// NewMerkleProof builds a proof from the hash of the containing block, the
// zero-based index of the transaction in that block and the hash path.
// hashes[0] is the transaction hash, the remaining entries are the siblings
// from the leaf level upwards. All hashes are in internal byte order.
func NewMerkleProof(blockHash chainhash.Hash, txIndex uint64, hashes []chainhash.Hash) (*MerkleProof, error) {
	if len(hashes) == 0 {
		return nil, errors.Wrap(ErrMalformedProof, "proof has no hashes")
	}

	p := &MerkleProof{
		blockHash: blockHash,
		txIndex:   txIndex,
		hashes:    append([]chainhash.Hash(nil), hashes...),
	}
	p.merkleRoot = merklize(p.txIndex, p.hashes)

	return p, nil
}

// merklize folds the hash path into the Merkle root. At every level the
// current node is the left operand when the index is even and the right one
// when it is odd.
func merklize(index uint64, hashes []chainhash.Hash) chainhash.Hash {
	if index == 0 && len(hashes) == 1 {
		return hashes[0]
	}

	hash := hashes[0]
	for _, sibling := range hashes[1:] {
		if index%2 == 0 {
			hash = hashPair(hash, sibling)
		} else {
			hash = hashPair(sibling, hash)
		}
		index /= 2
	}

	return hash
}

func hashPair(left, right chainhash.Hash) chainhash.Hash {
	var buf [chainhash.HashSize * 2]byte
	copy(buf[:chainhash.HashSize], left[:])
	copy(buf[chainhash.HashSize:], right[:])
	return chainhash.DoubleHashH(buf[:])
}

// BlockHash returns the hash of the block the proof points at.
func (p *MerkleProof) BlockHash() chainhash.Hash {
	return p.blockHash
}

// TxIndex returns the position of the transaction in its block.
func (p *MerkleProof) TxIndex() uint64 {
	return p.txIndex
}

// TxID returns the proven transaction hash. Its String method yields the
// usual display form of the txid. It is nil for a proof with no hashes.
func (p *MerkleProof) TxID() *chainhash.Hash {
	if p == nil || len(p.hashes) == 0 {
		return nil
	}
	txid := p.hashes[0]
	return &txid
}

// Hashes returns a copy of the hash path, leaf first.
func (p *MerkleProof) Hashes() []chainhash.Hash {
	return append([]chainhash.Hash(nil), p.hashes...)
}

// Depth returns the number of hashes in the path, including the leaf.
func (p *MerkleProof) Depth() int {
	return len(p.hashes)
}

// MerkleRoot returns the root computed from the path.
func (p *MerkleProof) MerkleRoot() chainhash.Hash {
	return p.merkleRoot
}

// Equal reports whether two proofs carry the same block hash, index and path.
func (p *MerkleProof) Equal(other *MerkleProof) bool {
	if p == nil || other == nil {
		return p == other
	}
	if p.blockHash != other.blockHash || p.txIndex != other.txIndex || len(p.hashes) != len(other.hashes) {
		return false
	}
	for i := range p.hashes {
		if p.hashes[i] != other.hashes[i] {
			return false
		}
	}
	return true
}

// CheckHeader reports whether the proof's root matches the Merkle root the
// header commits to.
func (p *MerkleProof) CheckHeader(header *block.Header) bool {
	return p.VerifyHeader(header) == nil
}

// VerifyHeader is the error returning form of CheckHeader. It fails with
// ErrMerkleRootMismatch.
func (p *MerkleProof) VerifyHeader(header *block.Header) error {
	if err := p.checkBuilt(); err != nil {
		return err
	}
	if header == nil {
		return errors.Wrap(ErrMerkleRootMismatch, "no header supplied")
	}
	if !bytes.Equal(p.merkleRoot[:], header.MerkleRoot[:]) {
		return errors.Wrapf(ErrMerkleRootMismatch, "proof root %s, header root %s", p.merkleRoot, header.MerkleRoot)
	}
	return nil
}

// checkBuilt rejects proofs that did not come from NewMerkleProof or a
// decoder, such as the zero value.
func (p *MerkleProof) checkBuilt() error {
	if p == nil || len(p.hashes) == 0 {
		return errors.Wrap(ErrMalformedProof, "proof has no hashes")
	}
	return nil
}
