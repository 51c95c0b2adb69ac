package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/rius2g/musicchain/backend/pkg/handler"
	"github.com/rius2g/musicchain/backend/pkg/manifest"
	"github.com/rius2g/musicchain/backend/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newServer(t *testing.T) (*httptest.Server, *manifest.InMemoryStore) {
	t.Helper()
	store := manifest.NewStore()
	srv := httptest.NewServer(handler.NewRouter(handler.NewHandler(store, zerolog.Nop())))
	t.Cleanup(srv.Close)
	return srv, store
}

func post(t *testing.T, url string, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestSubmitAndQuery(t *testing.T) {
	srv, store := newServer(t)

	m := types.Manifest{
		RunID:   "0b7c2a4e-5a0e-4c53-9f3e-0d1f7f4e2a11",
		Network: "simulated",
		Deployments: []types.Deployment{
			{Name: "MusicRegistry", Address: "0x01"},
			{Name: "MusicNFT", Address: "0x02"},
		},
	}
	body, err := json.Marshal(m)
	require.NoError(t, err)

	resp := post(t, srv.URL+"/deployments", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, store.All(), 1)

	var all []types.Manifest
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/deployments", &all))
	require.Len(t, all, 1)

	var one types.Manifest
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/deployments/"+m.RunID, &one))
	require.Equal(t, m.RunID, one.RunID)
	require.Len(t, one.Deployments, 2)

	var dep types.Deployment
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/deployments/"+m.RunID+"/contracts/MusicNFT", &dep))
	require.Equal(t, "0x02", dep.Address)
}

func TestNotFound(t *testing.T) {
	srv, store := newServer(t)
	store.Add(types.Manifest{RunID: "run-1"})

	require.Equal(t, http.StatusNotFound, get(t, srv.URL+"/deployments/unknown", nil))
	require.Equal(t, http.StatusNotFound, get(t, srv.URL+"/deployments/run-1/contracts/Copyright", nil))
	require.Equal(t, http.StatusNotFound, get(t, srv.URL+"/deployments/unknown/contracts/Copyright", nil))
}

func TestSubmitRejectsBadPayload(t *testing.T) {
	srv, store := newServer(t)

	resp := post(t, srv.URL+"/deployments", []byte("{not json"))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv.URL+"/deployments", []byte(`{"network":"simulated"}`))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Empty(t, store.All())
}

func TestEmptyListIsArray(t *testing.T) {
	srv, _ := newServer(t)
	resp, err := http.Get(srv.URL + "/deployments")
	require.NoError(t, err)
	defer resp.Body.Close()
	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	require.JSONEq(t, "[]", string(raw))
}
