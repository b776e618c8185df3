package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/stitchwork/stitch/event"
	"github.com/stitchwork/stitch/logger"
	"github.com/stitchwork/stitch/persistence"
	"github.com/stitchwork/stitch/service"
	"go.uber.org/zap"
)

type Server struct {
	http.Server
	Port            int
	workflows       persistence.WorkflowDao
	executions      persistence.ExecutionDao
	credentials     persistence.CredentialsDao
	executorService *service.WorkflowExecutionService
	bus             event.Bus
}

func NewServer(httpPort int, workflows persistence.WorkflowDao, executions persistence.ExecutionDao, credentials persistence.CredentialsDao, executorService *service.WorkflowExecutionService, bus event.Bus) (*Server, error) {
	s := &Server{
		Server: http.Server{
			Addr: fmt.Sprintf(":%d", httpPort),
		},
		Port:            httpPort,
		workflows:       workflows,
		executions:      executions,
		credentials:     credentials,
		executorService: executorService,
		bus:             bus,
	}

	router := mux.NewRouter()
	router.HandleFunc("/workflow", s.HandleCreateWorkflow).Methods(http.MethodPost)
	router.HandleFunc("/workflow/{id}", s.HandleGetWorkflow).Methods(http.MethodGet)
	router.HandleFunc("/workflow/{id}/run", s.HandleRunWorkflow).Methods(http.MethodPost)
	router.HandleFunc("/webhook/{webhookId}", s.HandleWebhook)
	router.HandleFunc("/execution/{id}", s.HandleGetExecution).Methods(http.MethodGet)
	router.HandleFunc("/credentials", s.HandleCreateCredentials).Methods(http.MethodPost)
	router.HandleFunc("/credentials/{id}", s.HandleGetCredentials).Methods(http.MethodGet)
	router.HandleFunc("/credentials/{id}", s.HandleDeleteCredentials).Methods(http.MethodDelete)
	router.HandleFunc("/ws/execution/{id}", s.HandleExecutionEvents)
	router.HandleFunc("/ws/workflow/{id}", s.HandleWorkflowEvents)
	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server on", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.Shutdown(ctx)
	if err != nil {
		logger.Error("error shutting down http server")
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.RequestURI)
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondOK(w http.ResponseWriter, message string) {
	respondWithJSON(w, http.StatusOK, map[string]string{"message": message})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
