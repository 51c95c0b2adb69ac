package cmd

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/rius2g/musicchain/backend/pkg/contracts"
	"github.com/rius2g/musicchain/backend/pkg/handler"
	"github.com/rius2g/musicchain/backend/pkg/manifest"
)

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--env-file", ""}, args...))
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func TestDeploy_Simulated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployments.yaml")
	stdout, stderr, err := run(t, "deploy", "--manifest", path)
	require.NoError(t, err, stderr)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 6)
	require.True(t, strings.HasPrefix(lines[0], "Deploying contracts with the account: 0x"))
	for i, name := range contracts.Names {
		require.True(t, strings.HasPrefix(lines[i+1], name+" deployed to: 0x"), lines[i+1])
	}
	require.Contains(t, stderr, `"event":"deploy_finished"`)

	m, err := manifest.Load(path)
	require.NoError(t, err)
	require.Len(t, m.Deployments, 5)
	require.Equal(t, "simulated", m.Network)
}

func TestDeploy_ReportsToCollector(t *testing.T) {
	store := manifest.NewStore()
	srv := httptest.NewServer(handler.NewRouter(handler.NewHandler(store, zerolog.Nop())))
	defer srv.Close()

	_, stderr, err := run(t, "deploy", "--report-url", srv.URL, "--log-format", "console")
	require.NoError(t, err, stderr)

	all := store.All()
	require.Len(t, all, 1)
	require.Len(t, all[0].Deployments, 5)
}

func TestDeploy_RemoteNeedsKey(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "")
	t.Setenv("MUSICCHAIN_PRIVATE_KEY", "")
	_, _, err := run(t, "deploy", "--network", "http://127.0.0.1:1")
	require.ErrorContains(t, err, "invalid configuration")
	require.ErrorContains(t, err, "private_key is required")
}

func TestDeploy_BadKey(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "not-a-key")
	_, _, err := run(t, "deploy", "--network", "http://127.0.0.1:1")
	require.ErrorContains(t, err, "invalid private key")
}

func TestVersion(t *testing.T) {
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	require.Equal(t, "musicchain "+version+"\n", stdout)
}
