package rest

import (
	"encoding/json"
	"net/http"

	"github.com/chainctl/actioneer/logger"
	"github.com/chainctl/actioneer/model"
	"go.uber.org/zap"
)

func (s *Server) HandleSaveManifest(w http.ResponseWriter, r *http.Request) {
	var manifest model.Manifest
	if err := json.NewDecoder(r.Body).Decode(&manifest); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	if err := s.metadataService.SaveManifest(manifest); err != nil {
		logger.Error("error saving manifest", zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondOK(w, map[string]any{"saved": true})
}

func (s *Server) HandleGetManifest(w http.ResponseWriter, r *http.Request) {
	manifest, err := s.metadataService.GetManifest()
	if err != nil {
		logger.Info("manifest does not exist")
		respondWithError(w, http.StatusNotFound, "manifest does not exist")
		return
	}
	respondWithJSON(w, http.StatusOK, manifest)
}

func (s *Server) HandleListActions(w http.ResponseWriter, r *http.Request) {
	manifest, err := s.metadataService.GetManifest()
	if err != nil {
		respondWithError(w, http.StatusNotFound, "manifest does not exist")
		return
	}
	type actionSummary struct {
		Id    string         `json:"id"`
		Label string         `json:"label"`
		Flow  model.FlowKind `json:"flow,omitempty"`
	}
	actions := make([]actionSummary, 0, len(manifest.Actions))
	for _, a := range manifest.Actions {
		actions = append(actions, actionSummary{Id: a.Id, Label: a.Label, Flow: a.Flow})
	}
	respondWithJSON(w, http.StatusOK, actions)
}
