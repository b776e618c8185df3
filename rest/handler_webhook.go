package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/stitchwork/stitch/logger"
	"go.uber.org/zap"
)

// HandleWebhook accepts any method: a json body becomes the trigger
// payload, otherwise the query parameters do.
func (s *Server) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	webhookId := mux.Vars(r)["webhookId"]
	var payload map[string]any
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			payload = nil
		}
		defer r.Body.Close()
	}
	if payload == nil {
		payload = map[string]any{}
		for key, values := range r.URL.Query() {
			if len(values) > 0 {
				payload[key] = values[0]
			}
		}
	}
	executionId, err := s.executorService.TriggerWebhook(r.Context(), webhookId, payload)
	if err != nil {
		logger.Error("error triggering webhook", zap.String("webhookId", webhookId), zap.Error(err))
		respondWithError(w, http.StatusNotFound, "webhook not found")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "workflow triggered", "executionId": executionId})
}
