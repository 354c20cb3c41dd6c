package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"mini-planner/auth"
	"mini-planner/integrity"
	appmw "mini-planner/middleware"
	"mini-planner/services"
	"mini-planner/store"
)

// Deps wires the router. A nil Metrics disables /metrics.
type Deps struct {
	Repo     store.Repository
	Tokens   *auth.Tokens
	Sessions auth.Sessions
	Log      *zap.Logger
	Metrics  *appmw.Metrics
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Refresh-Token")
		w.Header().Set("Access-Control-Expose-Headers", "Authorization, X-Refresh-Token")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func NewRouter(d Deps) http.Handler {
	engine := integrity.New(d.Repo)
	users := services.NewUserService(d.Repo, engine)

	authH := &authHandler{users: users, tokens: d.Tokens, sessions: d.Sessions, log: d.Log}
	userH := &userHandler{svc: users, sessions: d.Sessions, log: d.Log}
	taskH := &taskHandler{svc: services.NewTaskService(d.Repo, engine), log: d.Log}
	lists := newListHandler(services.NewListService(d.Repo, engine), d.Log)
	tags := newTagHandler(services.NewTagService(d.Repo, engine), d.Log)
	notes := newStickyNoteHandler(services.NewStickyNoteService(d.Repo, engine), d.Log)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(appmw.RequestLogger(d.Log))
	r.Use(chimw.Recoverer)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(cors)

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.Repo.Ping(r.Context()); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, "OK", nil)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/refresh-token", authH.refresh)

		r.Group(func(r chi.Router) {
			r.Use(appmw.RequireAnonymous(d.Tokens))
			r.Post("/signup", authH.signup)
			r.Post("/login", authH.login)
		})

		r.Group(func(r chi.Router) {
			r.Use(appmw.RequireAuth(d.Tokens, d.Log))
			r.Post("/logout", authH.logout)
			r.Route("/users", userH.routes)
			r.Route("/lists", lists.routes)
			r.Route("/tags", tags.routes)
			r.Route("/sticky-notes", notes.routes)
			r.Route("/tasks", taskH.routes)
		})
	})

	return r
}
