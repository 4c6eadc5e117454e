package rest

import (
	"encoding/json"
	"net/http"

	"github.com/chainctl/actioneer/logger"
	"github.com/chainctl/actioneer/model"
	"go.uber.org/zap"
)

func (s *Server) HandleUnlock(w http.ResponseWriter, r *http.Request) {
	var req model.UnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	if err := s.sessionStore.Unlock(req.Address, req.Secret); err != nil {
		logger.Error("session unlock failed", zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondOKWithoutBody(w)
}

func (s *Server) HandleLock(w http.ResponseWriter, r *http.Request) {
	if err := s.sessionStore.Lock(); err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondOKWithoutBody(w)
}

func (s *Server) HandleSessionStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"unlocked":         s.sessionStore.IsUnlocked(),
		"remainingSeconds": s.sessionStore.RemainingSeconds(),
	}
	respondWithJSON(w, http.StatusOK, status)
}
