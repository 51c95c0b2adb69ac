package ContractInteraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Artifact is a constructor handle: the contract interface plus its creation code.
type Artifact struct {
	Name     string
	ABI      abi.ABI
	Bytecode []byte
}

// ArtifactSource resolves contract names to artifacts.
type ArtifactSource interface {
	Artifact(name string) (*Artifact, error)
}

// MapSource serves artifacts from memory.
type MapSource map[string]*Artifact

func (m MapSource) Artifact(name string) (*Artifact, error) {
	a, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoArtifact, name)
	}
	return a, nil
}

// DirSource reads Hardhat build output. <Dir>/<Name>.sol/<Name>.json is tried
// first, then <Dir>/<Name>.json.
type DirSource struct {
	Dir string
}

func (d DirSource) Artifact(name string) (*Artifact, error) {
	candidates := []string{
		filepath.Join(d.Dir, name+".sol", name+".json"),
		filepath.Join(d.Dir, name+".json"),
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
		}
		return ParseArtifact(name, data)
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrNoArtifact, name, d.Dir)
}

// ParseArtifact accepts either a Hardhat/Truffle artifact object
// ({"abi": [...], "bytecode": "0x..."}) or a bare ABI array. A bare ABI yields
// an artifact without bytecode, usable for calls but not deployment.
func ParseArtifact(name string, data []byte) (*Artifact, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		parsed, err := abi.JSON(bytes.NewReader(trimmed))
		if err != nil {
			return nil, fmt.Errorf("could not parse ABI for %s: %w", name, err)
		}
		return &Artifact{Name: name, ABI: parsed}, nil
	}

	var contractData struct {
		ABI      json.RawMessage `json:"abi"`
		Bytecode json.RawMessage `json:"bytecode"`
	}
	if err := json.Unmarshal(trimmed, &contractData); err != nil {
		return nil, fmt.Errorf("could not parse artifact %s: %w", name, err)
	}
	if len(contractData.ABI) == 0 {
		return nil, fmt.Errorf("could not parse artifact %s: missing abi", name)
	}
	parsed, err := abi.JSON(bytes.NewReader(contractData.ABI))
	if err != nil {
		return nil, fmt.Errorf("could not parse ABI for %s: %w", name, err)
	}

	code, err := parseBytecode(contractData.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("could not parse bytecode for %s: %w", name, err)
	}
	return &Artifact{Name: name, ABI: parsed, Bytecode: code}, nil
}

// parseBytecode handles the Hardhat string form and the Foundry
// {"object": "0x..."} form.
func parseBytecode(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var hex string
	if err := json.Unmarshal(raw, &hex); err != nil {
		var obj struct {
			Object string `json:"object"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, err
		}
		hex = obj.Object
	}
	if hex == "" || hex == "0x" {
		return nil, nil
	}
	if !strings.HasPrefix(hex, "0x") {
		hex = "0x" + hex
	}
	return hexutil.Decode(hex)
}
