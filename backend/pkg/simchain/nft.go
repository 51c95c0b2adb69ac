package simchain

import (
	"maps"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	nftName   = "MusicNFT"
	nftSymbol = "MNFT"
)

// musicNFT follows the OpenZeppelin v4 ERC-721 revert strings.
type musicNFT struct {
	ownable
	owners    map[common.Hash]common.Address
	uris      map[common.Hash]string
	balances  map[common.Address]*big.Int
	approvals map[common.Hash]common.Address
	operators map[common.Address]map[common.Address]bool
}

func newMusicNFT(env *Env, args []any) (Contract, error) {
	o, err := newOwnable(args[0].(common.Address))
	if err != nil {
		return nil, err
	}
	return &musicNFT{
		ownable:   o,
		owners:    make(map[common.Hash]common.Address),
		uris:      make(map[common.Hash]string),
		balances:  make(map[common.Address]*big.Int),
		approvals: make(map[common.Hash]common.Address),
		operators: make(map[common.Address]map[common.Address]bool),
	}, nil
}

func (n *musicNFT) Clone() Contract {
	cp := &musicNFT{
		ownable:   n.ownable,
		owners:    maps.Clone(n.owners),
		uris:      maps.Clone(n.uris),
		balances:  make(map[common.Address]*big.Int, len(n.balances)),
		approvals: maps.Clone(n.approvals),
		operators: make(map[common.Address]map[common.Address]bool, len(n.operators)),
	}
	for holder, bal := range n.balances {
		cp.balances[holder] = new(big.Int).Set(bal)
	}
	for holder, ops := range n.operators {
		cp.operators[holder] = maps.Clone(ops)
	}
	return cp
}

func (n *musicNFT) Run(env *Env, method string, args []any) ([]any, error) {
	switch method {
	case "name":
		return []any{nftName}, nil
	case "symbol":
		return []any{nftSymbol}, nil
	case "mint":
		if err := n.onlyOwner(env); err != nil {
			return nil, err
		}
		return nil, n.mint(args[0].(common.Address), args[1].(*big.Int), args[2].(string))
	case "tokenURI":
		key := idKey(args[0].(*big.Int))
		if _, err := n.ownerOf(key); err != nil {
			return nil, err
		}
		return []any{n.uris[key]}, nil
	case "ownerOf":
		holder, err := n.ownerOf(idKey(args[0].(*big.Int)))
		if err != nil {
			return nil, err
		}
		return []any{holder}, nil
	case "balanceOf":
		holder := args[0].(common.Address)
		if holder == (common.Address{}) {
			return nil, Revert("ERC721: address zero is not a valid owner")
		}
		return []any{n.balanceOf(holder)}, nil
	case "approve":
		return nil, n.approve(env, args[0].(common.Address), idKey(args[1].(*big.Int)))
	case "getApproved":
		key := idKey(args[0].(*big.Int))
		if _, err := n.ownerOf(key); err != nil {
			return nil, err
		}
		return []any{n.approvals[key]}, nil
	case "setApprovalForAll":
		operator := args[0].(common.Address)
		if operator == env.Caller {
			return nil, Revert("ERC721: approve to caller")
		}
		ops, ok := n.operators[env.Caller]
		if !ok {
			ops = make(map[common.Address]bool)
			n.operators[env.Caller] = ops
		}
		ops[operator] = args[1].(bool)
		return nil, nil
	case "isApprovedForAll":
		return []any{n.operators[args[0].(common.Address)][args[1].(common.Address)]}, nil
	case "transferFrom":
		return nil, n.transferFrom(env, args[0].(common.Address), args[1].(common.Address), idKey(args[2].(*big.Int)))
	}
	if outs, ok, err := n.runOwnable(env, method, args); ok {
		return outs, err
	}
	return nil, Revert(errUnknownMethod)
}

func (n *musicNFT) ownerOf(key common.Hash) (common.Address, error) {
	holder, ok := n.owners[key]
	if !ok {
		return common.Address{}, Revert("ERC721: invalid token ID")
	}
	return holder, nil
}

func (n *musicNFT) balanceOf(holder common.Address) *big.Int {
	if bal, ok := n.balances[holder]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

func (n *musicNFT) adjustBalance(holder common.Address, delta int64) {
	bal := n.balanceOf(holder)
	n.balances[holder] = bal.Add(bal, big.NewInt(delta))
}

func (n *musicNFT) mint(to common.Address, tokenID *big.Int, uri string) error {
	if to == (common.Address{}) {
		return Revert("ERC721: mint to the zero address")
	}
	key := idKey(tokenID)
	if _, exists := n.owners[key]; exists {
		return Revert("ERC721: token already minted")
	}
	n.owners[key] = to
	n.uris[key] = uri
	n.adjustBalance(to, 1)
	return nil
}

func (n *musicNFT) approve(env *Env, to common.Address, key common.Hash) error {
	holder, err := n.ownerOf(key)
	if err != nil {
		return err
	}
	if to == holder {
		return Revert("ERC721: approval to current owner")
	}
	if env.Caller != holder && !n.operators[holder][env.Caller] {
		return Revert("ERC721: approve caller is not token owner or approved for all")
	}
	n.approvals[key] = to
	return nil
}

func (n *musicNFT) transferFrom(env *Env, from, to common.Address, key common.Hash) error {
	holder, err := n.ownerOf(key)
	if err != nil {
		return err
	}
	spender := env.Caller
	if spender != holder && n.approvals[key] != spender && !n.operators[holder][spender] {
		return Revert("ERC721: caller is not token owner or approved")
	}
	if holder != from {
		return Revert("ERC721: transfer from incorrect owner")
	}
	if to == (common.Address{}) {
		return Revert("ERC721: transfer to the zero address")
	}
	delete(n.approvals, key)
	n.adjustBalance(from, -1)
	n.adjustBalance(to, 1)
	n.owners[key] = to
	return nil
}
