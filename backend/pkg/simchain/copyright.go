package simchain

import (
	"maps"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	t "github.com/rius2g/musicchain/backend/pkg/types"
)

type copyrightRegistry struct {
	ownable
	count      *big.Int
	copyrights map[common.Hash]t.CopyrightInfo
}

func newCopyright(env *Env, args []any) (Contract, error) {
	o, err := newOwnable(args[0].(common.Address))
	if err != nil {
		return nil, err
	}
	return &copyrightRegistry{ownable: o, count: new(big.Int), copyrights: make(map[common.Hash]t.CopyrightInfo)}, nil
}

func (c *copyrightRegistry) Clone() Contract {
	return &copyrightRegistry{ownable: c.ownable, count: new(big.Int).Set(c.count), copyrights: maps.Clone(c.copyrights)}
}

func (c *copyrightRegistry) Run(env *Env, method string, args []any) ([]any, error) {
	switch method {
	case "registerCopyright":
		id := new(big.Int).Set(nextID(c.count))
		c.copyrights[idKey(id)] = t.CopyrightInfo{
			ID:       id,
			Title:    args[0].(string),
			Artist:   args[1].(string),
			IPFSHash: args[2].(string),
			Owner:    env.Caller,
		}
		return []any{id}, nil
	case "verifyOwnership":
		info, ok := c.copyrights[idKey(args[0].(*big.Int))]
		if !ok {
			return nil, Revert("Copyright: copyright not found")
		}
		return []any{info.ID, info.Title, info.Artist, info.IPFSHash, info.Owner}, nil
	case "transferCopyright":
		key := idKey(args[0].(*big.Int))
		info, ok := c.copyrights[key]
		if !ok {
			return nil, Revert("Copyright: copyright not found")
		}
		if env.Caller != info.Owner {
			return nil, Revert("Copyright: caller is not the copyright owner")
		}
		newOwner := args[1].(common.Address)
		if newOwner == (common.Address{}) {
			return nil, Revert("Copyright: new owner is the zero address")
		}
		info.Owner = newOwner
		c.copyrights[key] = info
		return nil, nil
	case "copyrightCount":
		return []any{new(big.Int).Set(c.count)}, nil
	}
	if outs, ok, err := c.runOwnable(env, method, args); ok {
		return outs, err
	}
	return nil, Revert(errUnknownMethod)
}
