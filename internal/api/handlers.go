package api

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rpattn/signalcat/internal/auth"
	"github.com/rpattn/signalcat/internal/catalog"
	"github.com/rpattn/signalcat/internal/domain"
)

// Handler serves the catalog REST surface.
type Handler struct {
	service *catalog.Service
	tokens  *auth.TokenManager
	users   map[string]string
}

// NewHandler wires the REST handlers. users maps username to password; in a
// deployment this would sit behind a directory, but the demo credential set is
// configured at startup.
func NewHandler(service *catalog.Service, tokens *auth.TokenManager, users map[string]string) *Handler {
	return &Handler{service: service, tokens: tokens, users: users}
}

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, fmt.Sprintf("invalid payload: %v", err))
		return
	}
	password, ok := h.users[payload.Username]
	if !ok || subtle.ConstantTimeCompare([]byte(password), []byte(payload.Password)) != 1 {
		writeErrorMessage(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := h.tokens.Issue(payload.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"token": token,
		"user":  payload.Username,
	})
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "no active session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"user": actor})
}

type signalPayload struct {
	FrequencyFrom *float64 `json:"frequency_from"`
	FrequencyTo   *float64 `json:"frequency_to"`
	Modulation    *string  `json:"modulation"`
	Power         *float64 `json:"power"`
	LockVersion   *int64   `json:"lock_version"`
}

func (h *Handler) handleListSignals(w http.ResponseWriter, r *http.Request) {
	signals, err := h.service.ListSignals(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, signals)
}

func (h *Handler) handleGetSignal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	signal, err := h.service.GetSignal(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, signal)
}

func (h *Handler) handleCreateSignal(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload signalPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, fmt.Sprintf("invalid payload: %v", err))
		return
	}
	input := catalog.SignalInput{}
	if payload.FrequencyFrom != nil {
		input.FrequencyFrom = *payload.FrequencyFrom
	}
	if payload.FrequencyTo != nil {
		input.FrequencyTo = *payload.FrequencyTo
	}
	if payload.Modulation != nil {
		input.Modulation = *payload.Modulation
	}
	if payload.Power != nil {
		input.Power = *payload.Power
	}
	signal, err := h.service.CreateSignal(r.Context(), mustActor(r), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, signal)
}

type signalUpdateResponse struct {
	domain.Signal
	Updated bool `json:"updated"`
}

func (h *Handler) handleUpdateSignal(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	id, err := pathID(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	var payload signalPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, fmt.Sprintf("invalid payload: %v", err))
		return
	}
	if payload.LockVersion == nil {
		writeErrorMessage(w, http.StatusBadRequest, "lock_version is required")
		return
	}
	patch := catalog.SignalPatch{
		FrequencyFrom: payload.FrequencyFrom,
		FrequencyTo:   payload.FrequencyTo,
		Modulation:    payload.Modulation,
		Power:         payload.Power,
	}
	signal, updated, err := h.service.UpdateSignal(r.Context(), mustActor(r), id, *payload.LockVersion, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, signalUpdateResponse{Signal: signal, Updated: updated})
}

func (h *Handler) handleDeleteSignal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	lockVersion, err := deleteLockVersion(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.service.DeleteSignal(r.Context(), mustActor(r), id, lockVersion); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assetPayload struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	SignalIDs   []int64 `json:"signal_ids"`
	LockVersion *int64  `json:"lock_version"`
}

func (h *Handler) handleListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.service.ListAssets(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

func (h *Handler) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	asset, err := h.service.GetAsset(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (h *Handler) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload assetPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, fmt.Sprintf("invalid payload: %v", err))
		return
	}
	input := catalog.AssetInput{SignalIDs: payload.SignalIDs}
	if payload.Name != nil {
		input.Name = *payload.Name
	}
	if payload.Description != nil {
		input.Description = *payload.Description
	}
	asset, err := h.service.CreateAsset(r.Context(), mustActor(r), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

type assetUpdateResponse struct {
	domain.Asset
	Updated bool `json:"updated"`
}

func (h *Handler) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	id, err := pathID(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	var payload assetPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, fmt.Sprintf("invalid payload: %v", err))
		return
	}
	if payload.LockVersion == nil {
		writeErrorMessage(w, http.StatusBadRequest, "lock_version is required")
		return
	}
	patch := catalog.AssetPatch{
		Name:        payload.Name,
		Description: payload.Description,
		SignalIDs:   payload.SignalIDs,
	}
	asset, updated, err := h.service.UpdateAsset(r.Context(), mustActor(r), id, *payload.LockVersion, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assetUpdateResponse{Asset: asset, Updated: updated})
}

func (h *Handler) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	lockVersion, err := deleteLockVersion(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.service.DeleteAsset(r.Context(), mustActor(r), id, lockVersion); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListVersions(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	id, err := pathID(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := h.service.ListVersions(r.Context(), kind, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleRecentChanges(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeErrorMessage(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	items, err := h.service.RecentChanges(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleListTrash(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListTrash(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// deleteLockVersion reads the lock counter a delete request must present,
// from the JSON body or, for clients that cannot send a DELETE body, from the
// lock_version query parameter.
func deleteLockVersion(r *http.Request) (int64, error) {
	defer r.Body.Close()
	var payload struct {
		LockVersion *int64 `json:"lock_version"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err == nil && payload.LockVersion != nil {
		if *payload.LockVersion <= 0 {
			return 0, fmt.Errorf("invalid lock_version %d", *payload.LockVersion)
		}
		return *payload.LockVersion, nil
	}

	raw := strings.TrimSpace(r.URL.Query().Get("lock_version"))
	if raw == "" {
		return 0, fmt.Errorf("lock_version is required")
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || version <= 0 {
		return 0, fmt.Errorf("invalid lock_version %q", raw)
	}
	return version, nil
}

// mustActor reads the actor placed on the context by the auth middleware.
// Routes calling it are always registered behind that middleware.
func mustActor(r *http.Request) string {
	actor, _ := auth.ActorFromContext(r.Context())
	return actor
}
