package rpc

import (
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Mutating requests carry a signed envelope: the payload bytes are hashed
// with keccak256 and the secp256k1 signature over that digest identifies the
// caller. No session state, no API keys; possession of the key is the
// identity.
type signedRequest struct {
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
}

var (
	ErrMissingSignature = errors.New("rpc: missing signature")
	ErrBadSignature     = errors.New("rpc: signature recovery failed")
)

const maxBodyBytes = 1 << 20

// RecoverCaller returns the address that signed the payload.
func RecoverCaller(payload []byte, signature string) ([20]byte, error) {
	var caller [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(signature), "0x")
	if trimmed == "" {
		return caller, ErrMissingSignature
	}
	sig, err := hex.DecodeString(trimmed)
	if err != nil {
		return caller, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if len(sig) != 65 {
		return caller, fmt.Errorf("%w: want 65 bytes, got %d", ErrBadSignature, len(sig))
	}
	// Accept both the raw recovery id and the legacy 27/28 offset.
	if sig[64] >= 27 {
		sig = append([]byte(nil), sig...)
		sig[64] -= 27
	}
	digest := ethcrypto.Keccak256(payload)
	pub, err := ethcrypto.SigToPub(digest, sig)
	if err != nil {
		return caller, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	addr := ethcrypto.PubkeyToAddress(*pub)
	copy(caller[:], addr[:])
	return caller, nil
}

// SignPayload produces the wire signature for a payload. Exposed for clients
// and tests.
func SignPayload(payload []byte, key *ecdsa.PrivateKey) (string, error) {
	digest := ethcrypto.Keccak256(payload)
	sig, err := ethcrypto.Sign(digest, key)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(sig), nil
}

// decodeSigned parses a signed envelope, recovers the caller, and unmarshals
// the payload into out. Pass a nil out for operations with no parameters
// beyond the identity.
func decodeSigned(r *http.Request, out interface{}) ([20]byte, error) {
	var caller [20]byte
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return caller, fmt.Errorf("rpc: read body: %w", err)
	}
	var env signedRequest
	if err := json.Unmarshal(body, &env); err != nil {
		return caller, fmt.Errorf("rpc: decode envelope: %w", err)
	}
	if len(env.Payload) == 0 {
		return caller, errors.New("rpc: missing payload")
	}
	caller, err = RecoverCaller(env.Payload, env.Signature)
	if err != nil {
		return caller, err
	}
	if out != nil {
		if err := json.Unmarshal(env.Payload, out); err != nil {
			return caller, fmt.Errorf("rpc: decode payload: %w", err)
		}
	}
	return caller, nil
}
