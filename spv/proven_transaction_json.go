package spv

import (
	"bytes"
	"encoding/json"

	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/pkg/errors"
)

type txJSON struct {
	TxID     string `json:"txid"`
	Hex      string `json:"hex"`
	Version  uint32 `json:"version"`
	LockTime uint32 `json:"lockTime"`
}

type provenTransactionJSON struct {
	Tx  *txJSON         `json:"tx"`
	SPV json.RawMessage `json:"spv,omitempty"`
}

// MarshalJSON encodes the transaction and, when present, its proof.
func (p *ProvenTransaction) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	if p.Tx == nil {
		return nil, errors.New("cannot marshal proven transaction without a transaction")
	}

	pj := provenTransactionJSON{
		Tx: &txJSON{
			TxID:     p.Tx.TxID().String(),
			Hex:      p.Tx.Hex(),
			Version:  p.Tx.Version,
			LockTime: p.Tx.LockTime,
		},
	}
	if p.Proof != nil {
		proof, err := p.Proof.MarshalJSON()
		if err != nil {
			return nil, err
		}
		pj.SPV = proof
	}

	return json.Marshal(pj)
}

// UnmarshalJSON decodes a proven transaction. The transaction is rebuilt from
// its raw hex; a txid, when given, must match it.
func (p *ProvenTransaction) UnmarshalJSON(b []byte) error {
	var pj provenTransactionJSON
	if err := json.Unmarshal(b, &pj); err != nil {
		return errors.Wrapf(ErrDecode, "proven transaction json: %v", err)
	}
	if pj.Tx == nil || pj.Tx.Hex == "" {
		return errors.Wrap(ErrDecode, "tx: missing hex")
	}

	tx, err := transaction.NewTransactionFromHex(pj.Tx.Hex)
	if err != nil {
		return errors.Wrapf(ErrDecode, "tx: %v", err)
	}
	if pj.Tx.TxID != "" && pj.Tx.TxID != tx.TxID().String() {
		return errors.Wrapf(ErrDecode, "tx: txid %s does not match hex (%s)", pj.Tx.TxID, tx.TxID())
	}

	var proof *MerkleProof
	if spv := bytes.TrimSpace(pj.SPV); len(spv) > 0 && !bytes.Equal(spv, []byte("null")) {
		proof = &MerkleProof{}
		if err := proof.UnmarshalJSON(spv); err != nil {
			return err
		}
	}

	p.Tx = tx
	p.Proof = proof
	return nil
}
