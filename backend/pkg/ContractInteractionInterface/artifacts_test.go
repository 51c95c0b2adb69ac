package ContractInteraction

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testABI = `[{"type":"constructor","inputs":[{"name":"initialOwner","type":"address"}]},{"type":"function","name":"owner","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"}]`

func TestParseArtifact_Hardhat(t *testing.T) {
	art, err := ParseArtifact("Thing", []byte(`{"contractName":"Thing","abi":`+testABI+`,"bytecode":"0x6080"}`))
	require.NoError(t, err)
	require.Equal(t, "Thing", art.Name)
	require.Equal(t, []byte{0x60, 0x80}, art.Bytecode)
	require.Contains(t, art.ABI.Methods, "owner")
}

func TestParseArtifact_FoundryObject(t *testing.T) {
	art, err := ParseArtifact("Thing", []byte(`{"abi":`+testABI+`,"bytecode":{"object":"6080"}}`))
	require.NoError(t, err)
	require.Equal(t, []byte{0x60, 0x80}, art.Bytecode)
}

func TestParseArtifact_BareABI(t *testing.T) {
	art, err := ParseArtifact("Thing", []byte("\n"+testABI))
	require.NoError(t, err)
	require.Empty(t, art.Bytecode)
	require.Len(t, art.ABI.Constructor.Inputs, 1)
}

func TestParseArtifact_Invalid(t *testing.T) {
	_, err := ParseArtifact("Thing", []byte(`{"bytecode":"0x00"}`))
	require.ErrorContains(t, err, "missing abi")

	_, err = ParseArtifact("Thing", []byte(`{"abi":`+testABI+`,"bytecode":"0xzz"}`))
	require.Error(t, err)
}

func TestDirSource_LookupOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Thing.sol"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Thing.sol", "Thing.json"),
		[]byte(`{"abi":`+testABI+`,"bytecode":"0x01"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Thing.json"),
		[]byte(`{"abi":`+testABI+`,"bytecode":"0x02"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Other.json"),
		[]byte(`{"abi":`+testABI+`,"bytecode":"0x03"}`), 0o644))

	src := DirSource{Dir: dir}
	art, err := src.Artifact("Thing")
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, art.Bytecode)

	art, err = src.Artifact("Other")
	require.NoError(t, err)
	require.Equal(t, []byte{0x03}, art.Bytecode)

	_, err = src.Artifact("Missing")
	require.ErrorIs(t, err, ErrNoArtifact)
}

func TestMapSource(t *testing.T) {
	src := MapSource{"Thing": {Name: "Thing"}}
	art, err := src.Artifact("Thing")
	require.NoError(t, err)
	require.Equal(t, "Thing", art.Name)

	_, err = src.Artifact("Nope")
	require.ErrorIs(t, err, ErrNoArtifact)
}
