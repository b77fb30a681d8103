package worker

import (
	"net/http"

	"MemForge/internals/commons"

	"github.com/gorilla/mux"
)

// API exposes the worker over HTTP: a health probe and the task registration
// metadata the platform reads to list this worker's task in its catalog.
type API struct {
	*commons.Server
	metadata interface{}
}

func NewAPI(server *commons.Server, metadata interface{}) *API {
	return &API{Server: server, metadata: metadata}
}

func (a *API) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(a.LoggingMiddleware())
	router.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/metadata", a.handleMetadata).Methods(http.MethodGet)
	return router
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	commons.WriteSuccessResponse(w, "ok", nil)
}

func (a *API) handleMetadata(w http.ResponseWriter, r *http.Request) {
	commons.WriteSuccessResponse(w, "", a.metadata)
}
