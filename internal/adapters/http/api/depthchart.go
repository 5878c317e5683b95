package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/depthchart/internal/domain/model"
)

// DepthChartHandler serves the depth chart routes.
type DepthChartHandler struct {
	deps Dependencies
}

// NewDepthChartHandler creates a new depth chart handler.
func NewDepthChartHandler(deps Dependencies) *DepthChartHandler {
	return &DepthChartHandler{deps: deps}
}

// playerRequest mirrors the OpenAPI Player schema.
type playerRequest struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
	GameName string `json:"gameName"`
	Depth    *int   `json:"depth"`
}

func (p playerRequest) toModel() model.Player {
	return model.Player{ID: p.ID, Name: p.Name, Position: p.Position, GameName: p.GameName, Depth: p.Depth}
}

func decodePlayer(r *http.Request) (playerRequest, error) {
	var req playerRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return playerRequest{}, fmt.Errorf("%w: invalid JSON body: %w", ErrBadRequest, err)
	}
	return req, nil
}

// HandleAddPlayer handles POST /depthchart requests.
func (h *DepthChartHandler) HandleAddPlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_player"
	req, err := decodePlayer(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	stored, err := h.deps.AddPlayer(r.Context(), req.toModel())
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	w.Header().Set("Location", "/depthchart")
	writeJSON(w, http.StatusCreated, stored)
}

// HandleGetChart handles GET /depthchart requests.
func (h *DepthChartHandler) HandleGetChart(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_chart"
	chart, err := h.deps.GetChart(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

// HandleGetPlayersUnder handles GET /depthchart/{gameName}/{position}/{playerId}.
func (h *DepthChartHandler) HandleGetPlayersUnder(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_players_under"
	playerID, err := strconv.Atoi(r.PathValue("playerId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: playerId must be an integer", ErrBadRequest))
		return
	}

	id := model.Identity{ID: playerID, Position: r.PathValue("position"), GameName: r.PathValue("gameName")}
	under, err := h.deps.GetPlayersUnder(r.Context(), id)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, under)
}

// HandleRemovePlayer handles DELETE /depthchart/player requests.
func (h *DepthChartHandler) HandleRemovePlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.remove_player"
	req, err := decodePlayer(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := h.deps.RemovePlayer(r.Context(), req.toModel().Identity()); err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
