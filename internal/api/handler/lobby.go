package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/spacetime-relay/internal/api/response"
	"github.com/mcoot/spacetime-relay/internal/model"
	"github.com/mcoot/spacetime-relay/internal/storage"
)

// LobbyHandler serves read-only lobby views
type LobbyHandler struct {
	store storage.LobbyStore
}

// NewLobbyHandler creates a new lobby handler
func NewLobbyHandler(store storage.LobbyStore) *LobbyHandler {
	return &LobbyHandler{store: store}
}

// List handles GET /api/v1/lobbies
func (h *LobbyHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.ListLobbies(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.LobbyListFromModel(summaries))
}

// Get handles GET /api/v1/lobbies/{code}
func (h *LobbyHandler) Get(w http.ResponseWriter, r *http.Request) {
	code, err := model.ParseLobbyCode(mux.Vars(r)["code"])
	if err != nil {
		WriteError(w, err)
		return
	}

	summary, err := h.store.GetSummary(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.LobbyFromModel(summary))
}
