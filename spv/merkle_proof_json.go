package spv

import (
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/go-softwarelab/common/pkg/slices"
	"github.com/pkg/errors"
)

type merkleProofJSON struct {
	BlockHash  string          `json:"blockHash"`
	TxID       string          `json:"txId,omitempty"`
	TxIndex    json.RawMessage `json:"txIndex"`
	Depth      int             `json:"depth"`
	Hashes     []string        `json:"hashes"`
	MerkleRoot string          `json:"merkleRoot,omitempty"`
}

// MarshalJSON encodes the proof. blockHash and txId are in display order,
// the path and merkleRoot are plain hex of the internal bytes. txId, depth and
// merkleRoot are informational and ignored by UnmarshalJSON.
func (p *MerkleProof) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	if err := p.checkBuilt(); err != nil {
		return nil, err
	}
	txIndex, err := json.Marshal(strconv.FormatUint(p.txIndex, 10))
	if err != nil {
		return nil, err
	}
	return json.Marshal(merkleProofJSON{
		BlockHash:  p.blockHash.String(),
		TxID:       p.hashes[0].String(),
		TxIndex:    txIndex,
		Depth:      len(p.hashes),
		Hashes:     slices.Map(p.hashes, internalHex),
		MerkleRoot: internalHex(p.merkleRoot),
	})
}

// UnmarshalJSON decodes a proof and derives its Merkle root. Any shape or
// value problem is reported as ErrDecode.
func (p *MerkleProof) UnmarshalJSON(b []byte) error {
	var pj merkleProofJSON
	if err := json.Unmarshal(b, &pj); err != nil {
		return errors.Wrapf(ErrDecode, "proof json: %v", err)
	}

	blockHash, err := decodeHashHex(pj.BlockHash)
	if err != nil {
		return errors.Wrapf(ErrDecode, "blockHash: %v", err)
	}
	// blockHash is written in display order.
	blockHash = reverseHash(blockHash)

	txIndex, err := parseTxIndex(pj.TxIndex)
	if err != nil {
		return errors.Wrapf(ErrDecode, "txIndex: %v", err)
	}

	if len(pj.Hashes) == 0 {
		return errors.Wrap(ErrDecode, "hashes: empty")
	}
	hashes, err := slices.MapOrError(pj.Hashes, decodeHashHex)
	if err != nil {
		return errors.Wrapf(ErrDecode, "hashes: %v", err)
	}

	proof, err := NewMerkleProof(blockHash, txIndex, hashes)
	if err != nil {
		return errors.Wrapf(ErrDecode, "%v", err)
	}
	*p = *proof
	return nil
}

func internalHex(h chainhash.Hash) string {
	return hex.EncodeToString(h[:])
}

// decodeHashHex decodes exactly 64 hex characters without reordering them.
func decodeHashHex(s string) (chainhash.Hash, error) {
	var h chainhash.Hash
	if len(s) != chainhash.HashSize*2 {
		return h, errors.Errorf("expected %d hex characters, got %d", chainhash.HashSize*2, len(s))
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, errors.Wrap(err, "invalid hex")
	}
	return h, nil
}

func reverseHash(h chainhash.Hash) chainhash.Hash {
	for i, j := 0, len(h)-1; i < j; i, j = i+1, j-1 {
		h[i], h[j] = h[j], h[i]
	}
	return h
}

// parseTxIndex accepts a decimal string or a bare JSON integer.
func parseTxIndex(raw json.RawMessage) (uint64, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return 0, errors.New("missing")
	}
	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, err
		}
	}
	if text == "" || strings.ContainsAny(text, "+-") {
		return 0, errors.Errorf("%q is not a non-negative integer", text)
	}
	idx, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, errors.Errorf("%q is not a non-negative integer below 2^64, the compact-size limit of the binary form", text)
	}
	return idx, nil
}
