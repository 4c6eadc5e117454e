package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/chainctl/actioneer/logger"
	"github.com/chainctl/actioneer/metadata"
	"github.com/chainctl/actioneer/service"
	"github.com/chainctl/actioneer/session"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Server struct {
	http.Server
	Port            int
	metadataService *metadata.Service
	executorService *service.ActionExecutionService
	sessionStore    *session.Store
	activity        chan<- struct{}
}

func NewServer(httpPort int, metadataService *metadata.Service, executorService *service.ActionExecutionService, sessionStore *session.Store, activity chan<- struct{}) (*Server, error) {
	s := &Server{
		Server: http.Server{
			Addr: fmt.Sprintf(":%d", httpPort),
		},
		metadataService: metadataService,
		executorService: executorService,
		sessionStore:    sessionStore,
		activity:        activity,
		Port:            httpPort,
	}

	router := mux.NewRouter()
	router.HandleFunc("/manifest", s.HandleSaveManifest).Methods(http.MethodPut)
	router.HandleFunc("/manifest", s.HandleGetManifest).Methods(http.MethodGet)
	router.HandleFunc("/actions", s.HandleListActions).Methods(http.MethodGet)
	router.HandleFunc("/run", s.HandleStartRun).Methods(http.MethodPost)
	router.HandleFunc("/run/{id}", s.HandleGetRun).Methods(http.MethodGet)
	router.HandleFunc("/run/{id}/value", s.HandleSetValue).Methods(http.MethodPost)
	router.HandleFunc("/run/{id}/continue", s.HandleContinue).Methods(http.MethodPost)
	router.HandleFunc("/run/{id}/back", s.HandleBack).Methods(http.MethodPost)
	router.HandleFunc("/run/{id}/done", s.HandleDone).Methods(http.MethodPost)
	router.HandleFunc("/session/unlock", s.HandleUnlock).Methods(http.MethodPost)
	router.HandleFunc("/session/lock", s.HandleLock).Methods(http.MethodPost)
	router.HandleFunc("/session", s.HandleSessionStatus).Methods(http.MethodGet)
	router.Use(loggingMiddleware)
	router.Use(s.activityMiddleware)
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

// activityMiddleware signals user interaction so an unlocked session's expiry
// keeps sliding forward while the operator works.
func (s *Server) activityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case s.activity <- struct{}{}:
		default:
		}
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondOK(w http.ResponseWriter, payload map[string]any) {
	respondWithJSON(w, http.StatusOK, payload)
}

func respondOKWithoutBody(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
