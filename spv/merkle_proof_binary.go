package spv

import (
	"encoding/hex"

	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/util"
	"github.com/pkg/errors"
)

// NewMerkleProofFromHex decodes a hex encoded binary proof.
func NewMerkleProofFromHex(str string) (*MerkleProof, error) {
	b, err := hex.DecodeString(str)
	if err != nil {
		return nil, errors.Wrapf(ErrDecode, "invalid proof hex: %v", err)
	}
	return NewMerkleProofFromBytes(b)
}

// NewMerkleProofFromBytes decodes a binary proof. The slice must hold exactly
// one proof.
func NewMerkleProofFromBytes(b []byte) (*MerkleProof, error) {
	r := util.NewReader(b)
	p, err := NewMerkleProofFromReader(r)
	if err != nil {
		return nil, err
	}
	if !r.IsComplete() {
		return nil, errors.Wrapf(ErrMalformedProof, "%d trailing bytes after proof", len(r.Data)-r.Pos)
	}
	return p, nil
}

// NewMerkleProofFromReader decodes one proof starting at the reader's
// position and leaves the reader just past it. The layout is
//
//	blockHash[32] | txIndex:varint | count:varint | hashes[count*32]
//
// with the block hash in display byte order.
func NewMerkleProofFromReader(r *util.Reader) (*MerkleProof, error) {
	blockHashBytes, err := r.ReadBytesReverse(chainhash.HashSize)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedProof, "reading block hash: %v", err)
	}
	blockHash, err := chainhash.NewHash(blockHashBytes)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedProof, "block hash: %v", err)
	}

	txIndex, err := readCompactSize(r)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedProof, "reading tx index: %v", err)
	}

	count, err := readCompactSize(r)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedProof, "reading hash count: %v", err)
	}
	if count == 0 {
		return nil, errors.Wrap(ErrMalformedProof, "proof has no hashes")
	}
	// Checked before allocating so a forged count cannot reserve memory.
	remaining := len(r.Data) - r.Pos
	if count > uint64(remaining/chainhash.HashSize) {
		return nil, errors.Wrapf(ErrMalformedProof, "hash count %d exceeds the %d bytes left", count, remaining)
	}
	n, err := safeconversion.Uint64ToInt(count)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedProof, "hash count: %v", err)
	}

	hashes := make([]chainhash.Hash, n)
	for i := range hashes {
		b, err := r.ReadBytes(chainhash.HashSize)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedProof, "reading hash %d: %v", i, err)
		}
		copy(hashes[i][:], b)
	}

	return NewMerkleProof(*blockHash, txIndex, hashes)
}

// readCompactSize reads a VarInt and rejects encodings wider than the value
// needs, so every accepted proof re-encodes to the same bytes.
func readCompactSize(r *util.Reader) (uint64, error) {
	start := r.Pos
	v, err := r.ReadVarInt()
	if err != nil {
		return 0, err
	}
	if used, minimal := r.Pos-start, len(util.VarInt(v).Bytes()); used != minimal {
		return 0, errors.Errorf("non-minimal varint for %d: %d bytes, want %d", v, used, minimal)
	}
	return v, nil
}

// Bytes encodes the proof in its binary form.
func (p *MerkleProof) Bytes() []byte {
	w := util.NewWriter()
	p.write(w)
	return w.Buf
}

// Hex encodes the proof in its binary form as a hex string.
func (p *MerkleProof) Hex() string {
	return hex.EncodeToString(p.Bytes())
}

// write expects a proof built by NewMerkleProof or a decoder.
func (p *MerkleProof) write(w *util.Writer) {
	w.WriteBytesReverse(p.blockHash[:])
	w.WriteVarInt(p.txIndex)
	w.WriteVarInt(uint64(len(p.hashes)))
	for _, h := range p.hashes {
		w.WriteBytes(h[:])
	}
}
