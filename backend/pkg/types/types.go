package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type MusicRecord struct {
	ID       *big.Int       `abi:"id"`
	Title    string         `abi:"title"`
	Artist   string         `abi:"artist"`
	IPFSHash string         `abi:"ipfsHash"`
	Owner    common.Address `abi:"owner"`
}

type Listing struct {
	TokenID *big.Int       `abi:"tokenId"`
	Seller  common.Address `abi:"seller"`
	Price   *big.Int       `abi:"price"`
	Active  bool           `abi:"active"`
}

type Dispute struct {
	ID          *big.Int       `abi:"id"`
	MusicID     *big.Int       `abi:"musicId"`
	Complainant common.Address `abi:"complainant"`
	Description string         `abi:"description"`
	Resolved    bool           `abi:"resolved"`
}

type CopyrightInfo struct {
	ID       *big.Int       `abi:"id"`
	Title    string         `abi:"title"`
	Artist   string         `abi:"artist"`
	IPFSHash string         `abi:"ipfsHash"`
	Owner    common.Address `abi:"owner"`
}

// Deployment is one confirmed contract creation.
type Deployment struct {
	Name        string   `json:"name" yaml:"name"`
	Address     string   `json:"address" yaml:"address"`
	TxHash      string   `json:"tx_hash" yaml:"tx_hash"`
	BlockNumber uint64   `json:"block_number" yaml:"block_number"`
	GasUsed     uint64   `json:"gas_used" yaml:"gas_used"`
	DurationMs  int64    `json:"duration_ms" yaml:"duration_ms"`
	DependsOn   []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
}

// Manifest records a deployment run. Deployments are in the order they were confirmed.
type Manifest struct {
	RunID        string       `json:"run_id" yaml:"run_id"`
	Network      string       `json:"network" yaml:"network"`
	ChainID      uint64       `json:"chain_id" yaml:"chain_id"`
	Deployer     string       `json:"deployer" yaml:"deployer"`
	Deployments  []Deployment `json:"deployments" yaml:"deployments"`
	StartedAt    time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt   time.Time    `json:"finished_at" yaml:"finished_at"`
	TotalGasUsed uint64       `json:"total_gas_used" yaml:"total_gas_used"`
	TotalCostWei string       `json:"total_cost_wei" yaml:"total_cost_wei"`
}

// Deployment returns the named deployment of the run.
func (m *Manifest) Deployment(name string) (Deployment, bool) {
	for _, d := range m.Deployments {
		if d.Name == name {
			return d, true
		}
	}
	return Deployment{}, false
}
