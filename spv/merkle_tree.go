package spv

import (
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/pkg/errors"
)

// ComputeMerkleRoot returns the root of the Merkle tree over leaves, given in
// block order and internal byte order. A level with an odd number of nodes
// pairs its last node with itself.
func ComputeMerkleRoot(leaves []chainhash.Hash) (chainhash.Hash, error) {
	if len(leaves) == 0 {
		return chainhash.Hash{}, errors.Wrap(ErrMalformedProof, "no leaves")
	}

	level := append([]chainhash.Hash(nil), leaves...)
	for len(level) > 1 {
		level = nextLevel(level)
	}

	return level[0], nil
}

// BuildMerkleProof collects the path for the leaf at index from the full list
// of a block's transaction hashes.
func BuildMerkleProof(blockHash chainhash.Hash, leaves []chainhash.Hash, index uint64) (*MerkleProof, error) {
	if index >= uint64(len(leaves)) {
		return nil, errors.Wrapf(ErrMalformedProof, "index %d out of range for %d leaves", index, len(leaves))
	}

	hashes := []chainhash.Hash{leaves[index]}
	level := append([]chainhash.Hash(nil), leaves...)
	pos := index
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		hashes = append(hashes, level[pos^1])
		level = nextLevel(level)
		pos /= 2
	}

	return NewMerkleProof(blockHash, index, hashes)
}

func nextLevel(level []chainhash.Hash) []chainhash.Hash {
	next := make([]chainhash.Hash, 0, (len(level)+1)/2)
	for i := 0; i < len(level); i += 2 {
		right := level[i]
		if i+1 < len(level) {
			right = level[i+1]
		}
		next = append(next, hashPair(level[i], right))
	}
	return next
}
