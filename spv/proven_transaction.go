package spv

import (
	"context"
	"encoding/hex"

	"github.com/bsv-blockchain/go-sdk/block"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/transaction/chaintracker"
	"github.com/bsv-blockchain/go-sdk/util"
	"github.com/pkg/errors"
)

const (
	proofAbsent  byte = 0
	proofPresent byte = 1
)

// ProvenTransaction is a transaction together with an optional proof of its
// inclusion in a block. A nil Proof describes an unconfirmed transaction.
//
// The binary form is the raw transaction, followed by a 0x01 flag and the
// proof when one is present. Decoding also accepts a 0x00 flag at the end of
// the data as "no proof", so a bare raw transaction is a valid encoding of an
// unproven transaction.
type ProvenTransaction struct {
	Tx    *transaction.Transaction
	Proof *MerkleProof
}

// NewProvenTransaction pairs tx with proof, which may be nil.
func NewProvenTransaction(tx *transaction.Transaction, proof *MerkleProof) *ProvenTransaction {
	return &ProvenTransaction{Tx: tx, Proof: proof}
}

// NewProvenTransactionFromHex decodes a hex encoded proven transaction.
func NewProvenTransactionFromHex(str string) (*ProvenTransaction, error) {
	b, err := hex.DecodeString(str)
	if err != nil {
		return nil, errors.Wrapf(ErrDecode, "invalid hex: %v", err)
	}
	return NewProvenTransactionFromBytes(b)
}

// NewProvenTransactionFromBytes decodes a proven transaction.
func NewProvenTransactionFromBytes(b []byte) (*ProvenTransaction, error) {
	tx, used, err := transaction.NewTransactionFromStream(b)
	if err != nil {
		return nil, errors.Wrapf(ErrDecode, "transaction: %v", err)
	}

	ptx := &ProvenTransaction{Tx: tx}
	rest := b[used:]
	if len(rest) == 0 {
		return ptx, nil
	}

	switch rest[0] {
	case proofAbsent:
		if len(rest) > 1 {
			return nil, errors.Wrapf(ErrMalformedProof, "%d bytes after absent proof flag", len(rest)-1)
		}
	case proofPresent:
		if ptx.Proof, err = NewMerkleProofFromBytes(rest[1:]); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Wrapf(ErrMalformedProof, "unknown proof flag 0x%02x", rest[0])
	}

	return ptx, nil
}

// Bytes encodes the proven transaction.
func (p *ProvenTransaction) Bytes() []byte {
	w := util.NewWriter()
	w.WriteBytes(p.Tx.Bytes())
	if p.Proof != nil {
		w.WriteByte(proofPresent)
		p.Proof.write(w)
	}
	return w.Buf
}

// Hex encodes the proven transaction as a hex string.
func (p *ProvenTransaction) Hex() string {
	return hex.EncodeToString(p.Bytes())
}

// TxID returns the hash of the wrapped transaction.
func (p *ProvenTransaction) TxID() *chainhash.Hash {
	return p.Tx.TxID()
}

// Verify checks the transaction against a trusted block header. The checks
// run in order and the first failure is returned:
//
//  1. a proof is attached (ErrProofMissing)
//  2. the proof's leaf is the transaction's hash (ErrTxIDMismatch)
//  3. the proof's root is the header's Merkle root (ErrMerkleRootMismatch)
//  4. the header hashes to the proof's block hash (ErrBlockHashMismatch)
func (p *ProvenTransaction) Verify(header *block.Header) error {
	if err := p.verifyLeaf(); err != nil {
		return err
	}
	if err := p.Proof.VerifyHeader(header); err != nil {
		return err
	}
	if blockHash := header.Hash(); !blockHash.IsEqual(&p.Proof.blockHash) {
		return errors.Wrapf(ErrBlockHashMismatch, "header hash %s, proof block hash %s", blockHash, p.Proof.blockHash)
	}
	return nil
}

// IsValid reports whether Verify succeeds.
func (p *ProvenTransaction) IsValid(header *block.Header) bool {
	return p.Verify(header) == nil
}

// VerifyWithChainTracker runs the proof and txid checks of Verify and asks
// tracker whether the proof's root belongs to the block at height. A chain
// tracker only attests roots, so the block hash is not checked.
func (p *ProvenTransaction) VerifyWithChainTracker(ctx context.Context, tracker chaintracker.ChainTracker, height uint32) error {
	if err := p.verifyLeaf(); err != nil {
		return err
	}
	root := p.Proof.MerkleRoot()
	ok, err := tracker.IsValidRootForHeight(ctx, &root, height)
	if err != nil {
		return errors.Wrapf(err, "checking root at height %d", height)
	}
	if !ok {
		return errors.Wrapf(ErrMerkleRootMismatch, "root %s is not valid at height %d", root, height)
	}
	return nil
}

func (p *ProvenTransaction) verifyLeaf() error {
	if p.Proof == nil {
		return ErrProofMissing
	}
	if err := p.Proof.checkBuilt(); err != nil {
		return err
	}
	if p.Tx == nil {
		return errors.Wrap(ErrTxIDMismatch, "no transaction")
	}
	if txid := p.Tx.TxID(); !txid.IsEqual(p.Proof.TxID()) {
		return errors.Wrapf(ErrTxIDMismatch, "transaction %s, proof leaf %s", txid, p.Proof.TxID())
	}
	return nil
}
