package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	contract "github.com/rius2g/musicchain/backend/pkg/ContractInteractionInterface"
	t "github.com/rius2g/musicchain/backend/pkg/types"
)

type MusicRegistry struct {
	bound
}

func NewMusicRegistry(address common.Address, client *contract.ContractInteractionInterface) (*MusicRegistry, error) {
	b, err := newBound(MusicRegistryName, address, client)
	if err != nil {
		return nil, err
	}
	return &MusicRegistry{b}, nil
}

func DeployMusicRegistry(ctx context.Context, client *contract.ContractInteractionInterface, artifacts contract.ArtifactSource, signer *contract.Signer, owner common.Address) (*MusicRegistry, *contract.Deployed, error) {
	b, d, err := deploy(ctx, client, artifacts, signer, MusicRegistryName, owner)
	if err != nil {
		return nil, nil, err
	}
	return &MusicRegistry{b}, d, nil
}

// RegisterMusic is owner-restricted. Ids are assigned from 1.
func (r *MusicRegistry) RegisterMusic(ctx context.Context, signer *contract.Signer, title, artist, ipfsHash string) (*types.Receipt, error) {
	return r.transact(ctx, signer, nil, "registerMusic", title, artist, ipfsHash)
}

func (r *MusicRegistry) GetMusic(ctx context.Context, musicID *big.Int) (t.MusicRecord, error) {
	var out t.MusicRecord
	err := r.call(ctx, &out, "getMusic", musicID)
	return out, err
}

func (r *MusicRegistry) MusicCount(ctx context.Context) (*big.Int, error) {
	var out *big.Int
	err := r.call(ctx, &out, "musicCount")
	return out, err
}
