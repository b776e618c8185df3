package rest

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stitchwork/stitch/logger"
	"github.com/stitchwork/stitch/model"
	"go.uber.org/zap"
)

func (s *Server) HandleCreateCredentials(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid credentials payload")
		return
	}
	defer r.Body.Close()
	if creds.Id == "" {
		creds.Id = uuid.New().String()
	}
	if err := s.credentials.Save(r.Context(), creds); err != nil {
		logger.Error("error saving credentials", zap.String("credentialsId", creds.Id), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error saving credentials")
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]string{"id": creds.Id})
}

func (s *Server) HandleGetCredentials(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	creds, err := s.credentials.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "credentials not found")
		return
	}
	respondWithJSON(w, http.StatusOK, creds)
}

func (s *Server) HandleDeleteCredentials(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.credentials.Delete(r.Context(), id); err != nil {
		respondWithError(w, http.StatusInternalServerError, "error deleting credentials")
		return
	}
	respondOK(w, "credentials deleted")
}
