package simchain

import (
	"maps"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	t "github.com/rius2g/musicchain/backend/pkg/types"
)

type musicRegistry struct {
	ownable
	count *big.Int
	music map[common.Hash]t.MusicRecord
}

func newMusicRegistry(env *Env, args []any) (Contract, error) {
	o, err := newOwnable(args[0].(common.Address))
	if err != nil {
		return nil, err
	}
	return &musicRegistry{ownable: o, count: new(big.Int), music: make(map[common.Hash]t.MusicRecord)}, nil
}

func (r *musicRegistry) Clone() Contract {
	return &musicRegistry{ownable: r.ownable, count: new(big.Int).Set(r.count), music: maps.Clone(r.music)}
}

func (r *musicRegistry) Run(env *Env, method string, args []any) ([]any, error) {
	switch method {
	case "registerMusic":
		if err := r.onlyOwner(env); err != nil {
			return nil, err
		}
		id := new(big.Int).Set(nextID(r.count))
		r.music[idKey(id)] = t.MusicRecord{
			ID:       id,
			Title:    args[0].(string),
			Artist:   args[1].(string),
			IPFSHash: args[2].(string),
			Owner:    env.Caller,
		}
		return []any{id}, nil
	case "getMusic":
		rec, ok := r.music[idKey(args[0].(*big.Int))]
		if !ok {
			return nil, Revert("MusicRegistry: music not found")
		}
		return []any{rec.ID, rec.Title, rec.Artist, rec.IPFSHash, rec.Owner}, nil
	case "musicCount":
		return []any{new(big.Int).Set(r.count)}, nil
	}
	if outs, ok, err := r.runOwnable(env, method, args); ok {
		return outs, err
	}
	return nil, Revert(errUnknownMethod)
}
