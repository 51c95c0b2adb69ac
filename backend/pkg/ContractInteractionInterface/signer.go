package ContractInteraction

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer is an account credential used to authorize state-changing calls.
type Signer struct {
	Address common.Address
	key     *ecdsa.PrivateKey
}

// NewSigner parses a hex private key, with or without the 0x prefix.
func NewSigner(privateKey string) (*Signer, error) {
	pk, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse key: %w", err)
	}
	return SignerFromKey(pk), nil
}

func SignerFromKey(pk *ecdsa.PrivateKey) *Signer {
	return &Signer{
		Address: crypto.PubkeyToAddress(pk.PublicKey),
		key:     pk,
	}
}
