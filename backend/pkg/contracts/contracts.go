// Package contracts provides typed bindings for the MusicRegistry, MusicNFT,
// Marketplace, DisputeResolution and Copyright contracts.
//
// The contract interfaces are embedded; creation bytecode comes from an
// ArtifactSource (Hardhat build output, or the simulated chain's native
// programs).
package contracts

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	contract "github.com/rius2g/musicchain/backend/pkg/ContractInteractionInterface"
)

const (
	MusicRegistryName     = "MusicRegistry"
	MusicNFTName          = "MusicNFT"
	MarketplaceName       = "Marketplace"
	DisputeResolutionName = "DisputeResolution"
	CopyrightName         = "Copyright"
)

// Names lists every bound contract.
var Names = []string{
	MusicRegistryName,
	MusicNFTName,
	MarketplaceName,
	DisputeResolutionName,
	CopyrightName,
}

//go:embed abi/*.json
var abiFS embed.FS

var (
	abiOnce  sync.Once
	abiCache map[string]abi.ABI
	abiErr   error
)

// ABI returns the embedded interface of the named contract.
func ABI(name string) (abi.ABI, error) {
	abiOnce.Do(func() {
		abiCache = make(map[string]abi.ABI, len(Names))
		for _, n := range Names {
			raw, err := abiFS.ReadFile("abi/" + n + ".json")
			if err != nil {
				abiErr = fmt.Errorf("read abi %s: %w", n, err)
				return
			}
			parsed, err := abi.JSON(bytes.NewReader(raw))
			if err != nil {
				abiErr = fmt.Errorf("parse abi %s: %w", n, err)
				return
			}
			abiCache[n] = parsed
		}
	})
	if abiErr != nil {
		return abi.ABI{}, abiErr
	}
	parsed, ok := abiCache[name]
	if !ok {
		return abi.ABI{}, fmt.Errorf("%w: %s", contract.ErrNoArtifact, name)
	}
	return parsed, nil
}

// Artifacts pairs the embedded interfaces with creation bytecode keyed by
// contract name.
func Artifacts(bytecode map[string][]byte) (contract.MapSource, error) {
	src := make(contract.MapSource, len(bytecode))
	for name, code := range bytecode {
		parsed, err := ABI(name)
		if err != nil {
			return nil, err
		}
		src[name] = &contract.Artifact{Name: name, ABI: parsed, Bytecode: code}
	}
	return src, nil
}

// bound is the common plumbing behind every binding.
type bound struct {
	client  *contract.ContractInteractionInterface
	address common.Address
	abi     abi.ABI
}

func newBound(name string, address common.Address, client *contract.ContractInteractionInterface) (bound, error) {
	parsed, err := ABI(name)
	if err != nil {
		return bound{}, err
	}
	return bound{client: client, address: address, abi: parsed}, nil
}

func (b *bound) Address() common.Address { return b.address }

func (b *bound) call(ctx context.Context, out any, method string, args ...any) error {
	return b.client.Call(ctx, b.address, b.abi, out, method, args...)
}

func (b *bound) transact(ctx context.Context, signer *contract.Signer, value *big.Int, method string, args ...any) (*types.Receipt, error) {
	return b.client.Transact(ctx, signer, b.address, b.abi, value, method, args...)
}

// Owner returns the account allowed to call owner-restricted methods.
func (b *bound) Owner(ctx context.Context) (common.Address, error) {
	var out common.Address
	err := b.call(ctx, &out, "owner")
	return out, err
}

func (b *bound) TransferOwnership(ctx context.Context, signer *contract.Signer, newOwner common.Address) (*types.Receipt, error) {
	return b.transact(ctx, signer, nil, "transferOwnership", newOwner)
}

func deploy(ctx context.Context, client *contract.ContractInteractionInterface, artifacts contract.ArtifactSource, signer *contract.Signer, name string, args ...any) (bound, *contract.Deployed, error) {
	art, err := artifacts.Artifact(name)
	if err != nil {
		return bound{}, nil, err
	}
	deployed, err := client.Deploy(ctx, signer, art, args...)
	if err != nil {
		return bound{}, nil, fmt.Errorf("deploy %s: %w", name, err)
	}
	b, err := newBound(name, deployed.Address, client)
	return b, deployed, err
}
