package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	contract "github.com/rius2g/musicchain/backend/pkg/ContractInteractionInterface"
)

type MusicNFT struct {
	bound
}

func NewMusicNFT(address common.Address, client *contract.ContractInteractionInterface) (*MusicNFT, error) {
	b, err := newBound(MusicNFTName, address, client)
	if err != nil {
		return nil, err
	}
	return &MusicNFT{b}, nil
}

func DeployMusicNFT(ctx context.Context, client *contract.ContractInteractionInterface, artifacts contract.ArtifactSource, signer *contract.Signer, owner common.Address) (*MusicNFT, *contract.Deployed, error) {
	b, d, err := deploy(ctx, client, artifacts, signer, MusicNFTName, owner)
	if err != nil {
		return nil, nil, err
	}
	return &MusicNFT{b}, d, nil
}

// Mint is owner-restricted.
func (n *MusicNFT) Mint(ctx context.Context, signer *contract.Signer, to common.Address, tokenID *big.Int, uri string) (*types.Receipt, error) {
	return n.transact(ctx, signer, nil, "mint", to, tokenID, uri)
}

func (n *MusicNFT) Approve(ctx context.Context, signer *contract.Signer, to common.Address, tokenID *big.Int) (*types.Receipt, error) {
	return n.transact(ctx, signer, nil, "approve", to, tokenID)
}

func (n *MusicNFT) SetApprovalForAll(ctx context.Context, signer *contract.Signer, operator common.Address, approved bool) (*types.Receipt, error) {
	return n.transact(ctx, signer, nil, "setApprovalForAll", operator, approved)
}

func (n *MusicNFT) TransferFrom(ctx context.Context, signer *contract.Signer, from, to common.Address, tokenID *big.Int) (*types.Receipt, error) {
	return n.transact(ctx, signer, nil, "transferFrom", from, to, tokenID)
}

func (n *MusicNFT) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	var out string
	err := n.call(ctx, &out, "tokenURI", tokenID)
	return out, err
}

func (n *MusicNFT) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	var out common.Address
	err := n.call(ctx, &out, "ownerOf", tokenID)
	return out, err
}

func (n *MusicNFT) BalanceOf(ctx context.Context, holder common.Address) (*big.Int, error) {
	var out *big.Int
	err := n.call(ctx, &out, "balanceOf", holder)
	return out, err
}

func (n *MusicNFT) GetApproved(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	var out common.Address
	err := n.call(ctx, &out, "getApproved", tokenID)
	return out, err
}

func (n *MusicNFT) IsApprovedForAll(ctx context.Context, holder, operator common.Address) (bool, error) {
	var out bool
	err := n.call(ctx, &out, "isApprovedForAll", holder, operator)
	return out, err
}

func (n *MusicNFT) Name(ctx context.Context) (string, error) {
	var out string
	err := n.call(ctx, &out, "name")
	return out, err
}

func (n *MusicNFT) Symbol(ctx context.Context) (string, error) {
	var out string
	err := n.call(ctx, &out, "symbol")
	return out, err
}
