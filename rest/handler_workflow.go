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

func (s *Server) HandleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var wf model.Workflow
	if err := json.NewDecoder(r.Body).Decode(&wf); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid workflow payload")
		return
	}
	defer r.Body.Close()
	if wf.Nodes.Len() == 0 {
		respondWithError(w, http.StatusBadRequest, "workflow has no nodes")
		return
	}
	if wf.Id == "" {
		wf.Id = uuid.New().String()
	}
	if wf.TriggerType == "" {
		wf.TriggerType = model.TRIGGER_TYPE_MANUAL
	}
	if wf.TriggerType == model.TRIGGER_TYPE_WEBHOOK && wf.WebhookId == "" {
		wf.WebhookId = uuid.New().String()
	}
	if err := s.workflows.Save(r.Context(), wf); err != nil {
		logger.Error("error saving workflow", zap.String("workflowId", wf.Id), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error saving workflow")
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]string{"id": wf.Id, "webhookId": wf.WebhookId})
}

func (s *Server) HandleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	wf, err := s.workflows.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "workflow not found")
		return
	}
	respondWithJSON(w, http.StatusOK, wf)
}

func (s *Server) HandleRunWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var runReq model.WorkflowRunRequest
	if r.Body != nil {
		// body is optional on a manual run
		_ = json.NewDecoder(r.Body).Decode(&runReq)
		defer r.Body.Close()
	}
	executionId, err := s.executorService.TriggerManual(r.Context(), id, runReq.Payload)
	if err != nil {
		logger.Error("error running workflow", zap.String("workflowId", id), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, "error running workflow")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "workflow triggered", "executionId": executionId})
}

func (s *Server) HandleGetExecution(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	execution, err := s.executions.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "execution not found")
		return
	}
	respondWithJSON(w, http.StatusOK, execution)
}
