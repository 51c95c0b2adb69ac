// Package handler serves the deployment manifests collected by `musicchain serve`.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/rius2g/musicchain/backend/pkg/manifest"
	t "github.com/rius2g/musicchain/backend/pkg/types"
)

type APIHandler struct {
	Store  *manifest.InMemoryStore
	logger zerolog.Logger
}

func NewHandler(store *manifest.InMemoryStore, logger zerolog.Logger) *APIHandler {
	return &APIHandler{Store: store, logger: logger}
}

// NewRouter wires the manifest routes.
func NewRouter(h *APIHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/deployments", h.SubmitManifest).Methods(http.MethodPost)
	r.HandleFunc("/deployments", h.GetManifests).Methods(http.MethodGet)
	r.HandleFunc("/deployments/{run_id}", h.GetManifest).Methods(http.MethodGet)
	r.HandleFunc("/deployments/{run_id}/contracts/{name}", h.GetContract).Methods(http.MethodGet)
	return r
}

// POST /deployments
func (h *APIHandler) SubmitManifest(w http.ResponseWriter, r *http.Request) {
	var m t.Manifest
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}
	if m.RunID == "" {
		http.Error(w, "run_id is required", http.StatusBadRequest)
		return
	}
	h.Store.Add(m)
	h.logger.Info().
		Str("event", "manifest_received").
		Str("run_id", m.RunID).
		Int("deployments", len(m.Deployments)).
		Send()
	writeJSON(w, http.StatusCreated, map[string]string{"status": "success", "run_id": m.RunID})
}

// GET /deployments
func (h *APIHandler) GetManifests(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.All())
}

// GET /deployments/{run_id}
func (h *APIHandler) GetManifest(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookup(w, mux.Vars(r)["run_id"])
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// GET /deployments/{run_id}/contracts/{name}
func (h *APIHandler) GetContract(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	m, ok := h.lookup(w, vars["run_id"])
	if !ok {
		return
	}
	d, found := m.Deployment(vars["name"])
	if !found {
		http.Error(w, "contract not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *APIHandler) lookup(w http.ResponseWriter, runID string) (t.Manifest, bool) {
	m, err := h.Store.ByRunID(runID)
	if errors.Is(err, manifest.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return t.Manifest{}, false
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return t.Manifest{}, false
	}
	return m, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
