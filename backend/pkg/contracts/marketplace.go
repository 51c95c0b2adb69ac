package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	contract "github.com/rius2g/musicchain/backend/pkg/ContractInteractionInterface"
	t "github.com/rius2g/musicchain/backend/pkg/types"
)

type Marketplace struct {
	bound
}

func NewMarketplace(address common.Address, client *contract.ContractInteractionInterface) (*Marketplace, error) {
	b, err := newBound(MarketplaceName, address, client)
	if err != nil {
		return nil, err
	}
	return &Marketplace{b}, nil
}

// DeployMarketplace needs the address of an already deployed MusicNFT.
func DeployMarketplace(ctx context.Context, client *contract.ContractInteractionInterface, artifacts contract.ArtifactSource, signer *contract.Signer, nft, owner common.Address) (*Marketplace, *contract.Deployed, error) {
	b, d, err := deploy(ctx, client, artifacts, signer, MarketplaceName, nft, owner)
	if err != nil {
		return nil, nil, err
	}
	return &Marketplace{b}, d, nil
}

// ListForSale requires the signer to hold the token and the marketplace to be
// approved for it before a purchase can settle.
func (m *Marketplace) ListForSale(ctx context.Context, signer *contract.Signer, tokenID, price *big.Int) (*types.Receipt, error) {
	return m.transact(ctx, signer, nil, "listForSale", tokenID, price)
}

// BuyMusic pays value, which must equal the listed price.
func (m *Marketplace) BuyMusic(ctx context.Context, signer *contract.Signer, tokenID, value *big.Int) (*types.Receipt, error) {
	return m.transact(ctx, signer, value, "buyMusic", tokenID)
}

func (m *Marketplace) CancelListing(ctx context.Context, signer *contract.Signer, tokenID *big.Int) (*types.Receipt, error) {
	return m.transact(ctx, signer, nil, "cancelListing", tokenID)
}

func (m *Marketplace) Listing(ctx context.Context, tokenID *big.Int) (t.Listing, error) {
	var out t.Listing
	err := m.call(ctx, &out, "listings", tokenID)
	return out, err
}

func (m *Marketplace) NFT(ctx context.Context) (common.Address, error) {
	var out common.Address
	err := m.call(ctx, &out, "nft")
	return out, err
}
