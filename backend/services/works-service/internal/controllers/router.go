package controllers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shiftly/mono-repo/backend/services/works-service/internal/routes"
)

/*
NewRouter wires every route. auth, when non-nil, guards the works routes;
/health and /metrics stay public.

Literal paths (/works/active, /works/resolve) are registered before
/works/{id} so the variable route does not swallow them.
*/
func NewRouter(works *WorksController, health *HealthController, auth mux.MiddlewareFunc) *mux.Router {
	router := mux.NewRouter()

	// Public
	router.HandleFunc(routes.Health, health.HealthCheckHandler).Methods(http.MethodGet)
	router.Handle(routes.Metrics, promhttp.Handler()).Methods(http.MethodGet)

	secured := router.NewRoute().Subrouter()
	if auth != nil {
		secured.Use(auth)
	}

	secured.HandleFunc(routes.Works, works.ListWorksHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.Works, works.CreateWorkHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.WorksActive, works.ActiveWorkHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.WorksResolve, works.ResolveWorkHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.WorksByCode, works.GetWorkByCodeHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.WorkByID, works.GetWorkHandler).Methods(http.MethodGet)

	secured.HandleFunc(routes.WorkAssign, works.AssignWorkHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.WorkStart, works.StartWorkHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.WorkPause, works.PauseWorkHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.WorkResume, works.ResumeWorkHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.WorkRelease, works.ReleaseWorkHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.WorkComplete, works.CompleteWorkHandler).Methods(http.MethodPost)

	secured.HandleFunc(routes.WorkCompletionCode, works.IssueCompletionCodeHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.WorkPublish, works.PublishWorkHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.WorkReject, works.RejectWorkHandler).Methods(http.MethodPost)

	return router
}
