package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bsv-blockchain/go-sdk/block"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/go-softwarelab/common/pkg/slogx"

	"github.com/sirdeggen/gebunden-spv/headers"
	"github.com/sirdeggen/gebunden-spv/spv"
)

// VerifyService decodes proofs and checks proven transactions against
// trusted headers.
type VerifyService struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	headers headers.Source
}

// VerifyResult is the outcome of one verification. Kind names the failed
// check when Valid is false.
type VerifyResult struct {
	Valid      bool   `json:"valid"`
	TxID       string `json:"txid,omitempty"`
	BlockHash  string `json:"blockHash,omitempty"`
	MerkleRoot string `json:"merkleRoot,omitempty"`
	Kind       string `json:"kind,omitempty"`
	Error      string `json:"error,omitempty"`
}

// NewVerifyService creates a service. source may be nil, in which case only
// headers passed in by the caller can be used.
func NewVerifyService(logger *slog.Logger, source headers.Source) *VerifyService {
	return &VerifyService{logger: slogx.Child(logger, "VerifyService"), headers: source}
}

// SetHeaderSource replaces the source used for height based verification.
func (vs *VerifyService) SetHeaderSource(source headers.Source) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	vs.headers = source
}

// Verify checks a hex encoded proven transaction against a hex encoded header.
// Decode and verification failures are reported in the result; the error is
// reserved for an unusable header.
func (vs *VerifyService) Verify(txHex, headerHex string) (VerifyResult, error) {
	header, err := block.NewHeaderFromHex(headerHex)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("invalid header: %w", err)
	}
	return vs.verifyWithHeader(txHex, header), nil
}

// VerifyAtHeight checks a proven transaction against the header the source
// holds at height.
func (vs *VerifyService) VerifyAtHeight(ctx context.Context, txHex string, height uint32) (VerifyResult, error) {
	vs.mu.RLock()
	source := vs.headers
	vs.mu.RUnlock()

	if source == nil {
		return VerifyResult{}, fmt.Errorf("no header source configured")
	}
	header, err := source.HeaderByHeight(ctx, height)
	if err != nil {
		return VerifyResult{}, err
	}
	return vs.verifyWithHeader(txHex, header), nil
}

// VerifyRoot checks only that the proof's root is the Merkle root of the block
// at height, as attested by the header source. The block hash is not checked.
func (vs *VerifyService) VerifyRoot(ctx context.Context, txHex string, height uint32) (VerifyResult, error) {
	vs.mu.RLock()
	source := vs.headers
	vs.mu.RUnlock()

	if source == nil {
		return VerifyResult{}, fmt.Errorf("no header source configured")
	}

	ptx, err := spv.NewProvenTransactionFromHex(txHex)
	if err != nil {
		return failedResult(VerifyResult{}, err), nil
	}
	res := VerifyResult{TxID: ptx.TxID().String()}

	if err := ptx.VerifyWithChainTracker(ctx, source, height); err != nil {
		if spv.Classify(err) == "" {
			return VerifyResult{}, err
		}
		return failedResult(res, err), nil
	}
	root := ptx.Proof.MerkleRoot()
	res.BlockHash = ptx.Proof.BlockHash().String()
	res.MerkleRoot = root.String()
	res.Valid = true
	return res, nil
}

func (vs *VerifyService) verifyWithHeader(txHex string, header *block.Header) VerifyResult {
	ptx, err := spv.NewProvenTransactionFromHex(txHex)
	if err != nil {
		vs.logger.Warn("Failed to decode proven transaction", slogx.Error(err))
		return failedResult(VerifyResult{}, err)
	}

	res := VerifyResult{TxID: ptx.TxID().String()}
	if ptx.Proof != nil {
		root := ptx.Proof.MerkleRoot()
		res.BlockHash = ptx.Proof.BlockHash().String()
		res.MerkleRoot = root.String()
	}

	if err := ptx.Verify(header); err != nil {
		vs.logger.Info("Verification failed", "txid", res.TxID, "kind", spv.Classify(err), slogx.Error(err))
		return failedResult(res, err)
	}

	vs.logger.Info("Transaction verified", "txid", res.TxID, "blockHash", res.BlockHash)
	res.Valid = true
	return res
}

func failedResult(res VerifyResult, err error) VerifyResult {
	res.Valid = false
	res.Kind = spv.Classify(err)
	res.Error = err.Error()
	return res
}

// CallMethod dispatches a method call by name with JSON args and returns the
// JSON encoded result. It is the single entry point of the HTTP server.
func (vs *VerifyService) CallMethod(ctx context.Context, method string, argsJSON string) (string, error) {
	var result any
	var err error

	switch method {
	case "decodeProof":
		var args struct {
			Hex string `json:"hex"`
		}
		if e := json.Unmarshal([]byte(argsJSON), &args); e != nil {
			return "", fmt.Errorf("invalid args: %w", e)
		}
		result, err = spv.NewMerkleProofFromHex(args.Hex)

	case "encodeProof":
		var proof spv.MerkleProof
		if e := json.Unmarshal([]byte(argsJSON), &proof); e != nil {
			return "", fmt.Errorf("invalid args: %w", e)
		}
		result = map[string]string{"hex": proof.Hex()}

	case "decodeProvenTx":
		var args struct {
			Hex string `json:"hex"`
		}
		if e := json.Unmarshal([]byte(argsJSON), &args); e != nil {
			return "", fmt.Errorf("invalid args: %w", e)
		}
		result, err = spv.NewProvenTransactionFromHex(args.Hex)

	case "verify":
		var args struct {
			Tx     string `json:"tx"`
			Header string `json:"header"`
		}
		if e := json.Unmarshal([]byte(argsJSON), &args); e != nil {
			return "", fmt.Errorf("invalid args: %w", e)
		}
		result, err = vs.Verify(args.Tx, args.Header)

	case "verifyAtHeight", "verifyRoot":
		var args struct {
			Tx     string `json:"tx"`
			Height uint32 `json:"height"`
		}
		if e := json.Unmarshal([]byte(argsJSON), &args); e != nil {
			return "", fmt.Errorf("invalid args: %w", e)
		}
		if method == "verifyRoot" {
			result, err = vs.VerifyRoot(ctx, args.Tx, args.Height)
		} else {
			result, err = vs.VerifyAtHeight(ctx, args.Tx, args.Height)
		}

	case "computeRoot":
		var args struct {
			TxIDs []string `json:"txids"`
		}
		if e := json.Unmarshal([]byte(argsJSON), &args); e != nil {
			return "", fmt.Errorf("invalid args: %w", e)
		}
		result, err = computeRoot(args.TxIDs)

	default:
		return "", fmt.Errorf("unknown method: %s", method)
	}

	if err != nil {
		return "", err
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	return string(resultJSON), nil
}

func computeRoot(txids []string) (map[string]string, error) {
	leaves := make([]chainhash.Hash, 0, len(txids))
	for _, id := range txids {
		h, err := chainhash.NewHashFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("invalid txid %q: %w", id, err)
		}
		leaves = append(leaves, *h)
	}
	root, err := spv.ComputeMerkleRoot(leaves)
	if err != nil {
		return nil, err
	}
	return map[string]string{"merkleRoot": root.String()}, nil
}
