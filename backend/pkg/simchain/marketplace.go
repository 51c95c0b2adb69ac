package simchain

import (
	"maps"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	t "github.com/rius2g/musicchain/backend/pkg/types"
)

type marketplace struct {
	ownable
	nft      common.Address
	listings map[common.Hash]t.Listing
}

func newMarketplace(env *Env, args []any) (Contract, error) {
	nft := args[0].(common.Address)
	if nft == (common.Address{}) {
		return nil, Revert("Marketplace: nft is the zero address")
	}
	o, err := newOwnable(args[1].(common.Address))
	if err != nil {
		return nil, err
	}
	return &marketplace{ownable: o, nft: nft, listings: make(map[common.Hash]t.Listing)}, nil
}

func (m *marketplace) Clone() Contract {
	return &marketplace{ownable: m.ownable, nft: m.nft, listings: maps.Clone(m.listings)}
}

func (m *marketplace) Run(env *Env, method string, args []any) ([]any, error) {
	switch method {
	case "nft":
		return []any{m.nft}, nil
	case "listForSale":
		return nil, m.listForSale(env, args[0].(*big.Int), args[1].(*big.Int))
	case "buyMusic":
		return nil, m.buyMusic(env, args[0].(*big.Int))
	case "cancelListing":
		key := idKey(args[0].(*big.Int))
		l, ok := m.listings[key]
		if !ok || !l.Active {
			return nil, Revert("Marketplace: item not for sale")
		}
		if env.Caller != l.Seller {
			return nil, Revert("Marketplace: caller is not seller")
		}
		l.Active = false
		m.listings[key] = l
		return nil, nil
	case "listings":
		tokenID := args[0].(*big.Int)
		l, ok := m.listings[idKey(tokenID)]
		if !ok {
			return []any{new(big.Int), common.Address{}, new(big.Int), false}, nil
		}
		return []any{l.TokenID, l.Seller, l.Price, l.Active}, nil
	}
	if outs, ok, err := m.runOwnable(env, method, args); ok {
		return outs, err
	}
	return nil, Revert(errUnknownMethod)
}

func (m *marketplace) listForSale(env *Env, tokenID, price *big.Int) error {
	if price.Sign() <= 0 {
		return Revert("Marketplace: price must be greater than zero")
	}
	outs, err := env.Call(m.nft, "ownerOf", tokenID)
	if err != nil {
		return err
	}
	if outs[0].(common.Address) != env.Caller {
		return Revert("Marketplace: caller is not token owner")
	}
	m.listings[idKey(tokenID)] = t.Listing{TokenID: tokenID, Seller: env.Caller, Price: price, Active: true}
	return nil
}

// buyMusic settles a listing: the token moves to the buyer through the NFT
// contract, which requires the marketplace to be approved, and the payment is
// forwarded to the seller.
func (m *marketplace) buyMusic(env *Env, tokenID *big.Int) error {
	key := idKey(tokenID)
	l, ok := m.listings[key]
	if !ok || !l.Active {
		return Revert("Marketplace: item not for sale")
	}
	if env.Value.Cmp(l.Price) != 0 {
		return Revert("Marketplace: incorrect payment amount")
	}
	l.Active = false
	m.listings[key] = l

	if _, err := env.Call(m.nft, "transferFrom", l.Seller, env.Caller, tokenID); err != nil {
		return err
	}
	return env.Transfer(l.Seller, env.Value)
}
