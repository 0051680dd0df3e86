package game

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"chess_review/internal/domain/game"
	apperrors "chess_review/internal/errors"
	"chess_review/internal/httpresponse"
	gameuc "chess_review/internal/usecase/game"
	"chess_review/internal/utils"
)

type GameHandler struct {
	log    *zap.SugaredLogger
	gameUC *gameuc.GameUseCase
}

func NewGameHandler(log *zap.SugaredLogger, gameUC *gameuc.GameUseCase) *GameHandler {
	return &GameHandler{
		log:    log,
		gameUC: gameUC,
	}
}

func (g *GameHandler) Routes(r chi.Router) {
	r.Post("/games", g.HandleNewGame)
	r.Route("/games/{id}", func(r chi.Router) {
		r.Get("/", g.HandleGetState)
		r.Delete("/", g.HandleEndGame)
		r.Post("/moves", g.HandleMove)
		r.Delete("/moves/last", g.HandleDeleteLastMove)
		r.Post("/back", g.HandleStepBack)
		r.Post("/forward", g.HandleStepForward)
		r.Post("/seek", g.HandleSeek)
		r.Post("/reset", g.HandleReset)
		r.Get("/ws", g.HandleWebSocket)
	})
}

func (g *GameHandler) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	resp, err := g.gameUC.NewGame(r.Context())
	if err != nil {
		g.log.Errorw("new game failed", "error", err)
		if errors.Is(err, apperrors.ErrEngineUnavailable) {
			httpresponse.WriteErrorResponse(w, http.StatusBadGateway, "chess engine unavailable", nil)
			return
		}
		httpresponse.WriteInternalErrorResponse(w)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusCreated, resp)
}

func (g *GameHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	state, err := g.gameUC.State(chi.URLParam(r, "id"))
	g.writeState(w, state, err)
}

func (g *GameHandler) HandleEndGame(w http.ResponseWriter, r *http.Request) {
	if err := g.gameUC.EndGame(chi.URLParam(r, "id")); err != nil {
		g.writeError(w, game.GameState{}, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (g *GameHandler) HandleMove(w http.ResponseWriter, r *http.Request) {
	var req game.MoveRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, httpresponse.MALFORMEDJSON_errorDesc, err.Error())
		return
	}
	if !req.From.Valid() || !req.To.Valid() {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "from and to must be squares like e2", nil)
		return
	}

	state, err := g.gameUC.AttemptMove(r.Context(), chi.URLParam(r, "id"), req)
	g.writeState(w, state, err)
}

func (g *GameHandler) HandleDeleteLastMove(w http.ResponseWriter, r *http.Request) {
	state, err := g.gameUC.DeleteLastMove(r.Context(), chi.URLParam(r, "id"))
	g.writeState(w, state, err)
}

func (g *GameHandler) HandleStepBack(w http.ResponseWriter, r *http.Request) {
	state, err := g.gameUC.StepBack(r.Context(), chi.URLParam(r, "id"))
	g.writeState(w, state, err)
}

func (g *GameHandler) HandleStepForward(w http.ResponseWriter, r *http.Request) {
	state, err := g.gameUC.StepForward(r.Context(), chi.URLParam(r, "id"))
	g.writeState(w, state, err)
}

func (g *GameHandler) HandleSeek(w http.ResponseWriter, r *http.Request) {
	var req game.SeekRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, httpresponse.MALFORMEDJSON_errorDesc, err.Error())
		return
	}
	state, err := g.gameUC.SeekTo(r.Context(), chi.URLParam(r, "id"), req.Index)
	g.writeState(w, state, err)
}

func (g *GameHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	state, err := g.gameUC.Reset(r.Context(), chi.URLParam(r, "id"))
	g.writeState(w, state, err)
}

func (g *GameHandler) writeState(w http.ResponseWriter, state game.GameState, err error) {
	if err != nil {
		g.writeError(w, state, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, state)
}

// writeError maps usecase errors to statuses. Rejections carry the unchanged
// state so the client can show the feedback line.
func (g *GameHandler) writeError(w http.ResponseWriter, state game.GameState, err error) {
	switch {
	case errors.Is(err, apperrors.ErrGameNotFound):
		httpresponse.WriteErrorResponse(w, http.StatusNotFound, "game not found", nil)
	case errors.Is(err, apperrors.ErrNotLive):
		httpresponse.WriteErrorResponse(w, http.StatusConflict, "moves can only be made from the latest position", state)
	case errors.Is(err, apperrors.ErrIllegalMove):
		httpresponse.WriteErrorResponse(w, http.StatusUnprocessableEntity, "illegal move", state)
	case errors.Is(err, apperrors.ErrEngineUnavailable):
		httpresponse.WriteErrorResponse(w, http.StatusBadGateway, "chess engine unavailable", state)
	case errors.Is(err, apperrors.ErrCorruptHistory):
		g.log.Errorw("request on corrupt game", "game_id", state.GameID, "error", err)
		httpresponse.WriteErrorResponse(w, http.StatusInternalServerError, "move history is corrupt, reset the game", state)
	default:
		g.log.Errorw("request failed", "error", err)
		httpresponse.WriteInternalErrorResponse(w)
	}
}
