package rest

import (
	"encoding/json"
	"net/http"

	"github.com/chainctl/actioneer/logger"
	"github.com/chainctl/actioneer/model"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func (s *Server) HandleStartRun(w http.ResponseWriter, r *http.Request) {
	var req model.RunStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	view, err := s.executorService.StartRun(req)
	if err != nil {
		logger.Error("error starting run", zap.String("action", req.Action), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

func (s *Server) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	view, err := s.executorService.GetRun(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusNotFound, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

func (s *Server) HandleSetValue(w http.ResponseWriter, r *http.Request) {
	var req model.RunValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	view, err := s.executorService.SetValue(mux.Vars(r)["id"], req)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

func (s *Server) HandleContinue(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	view, err := s.executorService.Continue(id)
	if err != nil {
		logger.Error("error continuing run", zap.String("run", id), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

func (s *Server) HandleBack(w http.ResponseWriter, r *http.Request) {
	view, err := s.executorService.Back(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

func (s *Server) HandleDone(w http.ResponseWriter, r *http.Request) {
	view, err := s.executorService.Done(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}
