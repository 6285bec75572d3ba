// Package httpapi exposes the lab journal over HTTP: token auth, role and
// permission administration, the chemical inventory, experiment records
// and the dashboard summary.
package httpapi

import (
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"benchbook.org/internal/auth"
	"benchbook.org/internal/journal"
	"benchbook.org/internal/obs"
)

// Deps carries everything the HTTP layer needs. Zero-valued tuning fields
// fall back to sensible defaults.
type Deps struct {
	Accounts *auth.Accounts
	Registry *auth.Registry
	Resolver *auth.Resolver
	Gate     *auth.Gate
	Journal  *journal.Service
	Ready    ReadyProbe
	Version  string

	RateRPS      float64
	RateBurst    int
	MaxBodyBytes int64
	CORSOrigins  []string
}

// API is the HTTP front end.
type API struct {
	mux      *chi.Mux
	accounts *auth.Accounts
	registry *auth.Registry
	resolver *auth.Resolver
	gate     *auth.Gate
	journal  *journal.Service
	ready    ReadyProbe
	version  string
	validate *validator.Validate
	draining atomic.Bool
}

// New wires the router. Route-level permission checks mirror the
// capability model: reads demand read permissions, writes demand write
// permissions, and administration demands the manage permissions.
func New(deps Deps) *API {
	a := &API{
		mux:      chi.NewRouter(),
		accounts: deps.Accounts,
		registry: deps.Registry,
		resolver: deps.Resolver,
		gate:     deps.Gate,
		journal:  deps.Journal,
		ready:    deps.Ready,
		version:  deps.Version,
		validate: validator.New(),
	}

	rps := deps.RateRPS
	if rps <= 0 {
		rps = 50
	}
	burst := deps.RateBurst
	if burst <= 0 {
		burst = 100
	}
	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := a.mux
	r.Use(RequestID)
	r.Use(RequestLogger)
	r.Use(Recover)
	r.Use(SecurityHeaders)
	r.Use(CORS(origins))
	r.Use(func(next http.Handler) http.Handler { return MaxBodyBytes(next, maxBody) })
	r.Use(func(next http.Handler) http.Handler { return RateLimit(next, burst, rps) })

	r.Get("/healthz", a.handleHealthz)
	r.Get("/readyz", a.handleReadyz)
	r.Method(http.MethodGet, "/metrics", obs.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Get("/info", a.handleInfo)
		api.Post("/auth/register", a.handleRegister)
		api.Post("/auth/login", a.handleLogin)

		api.Group(func(priv chi.Router) {
			priv.Use(a.withAuth)

			priv.Get("/auth/me", a.handleMe)

			priv.With(a.require(auth.Require(auth.PermManageRoles))).
				Get("/permissions", a.handleListPermissions)

			priv.Route("/roles", func(roles chi.Router) {
				roles.Use(a.require(auth.Require(auth.PermManageRoles)))
				roles.Get("/", a.handleListRoles)
				roles.Post("/", a.handleCreateRole)
				roles.Get("/{name}", a.handleGetRole)
				roles.Put("/{name}", a.handleUpdateRole)
				roles.Delete("/{name}", a.handleDeleteRole)
				roles.Get("/{name}/users", a.handleRoleUsers)
			})

			priv.Route("/admin", func(admin chi.Router) {
				admin.With(a.require(auth.Require(auth.PermManageRoles))).
					Post("/roles/reconcile", a.handleReconcileRoles)
				admin.Route("/users", func(users chi.Router) {
					users.Use(a.require(auth.Require(auth.PermManageUsers)))
					users.Get("/", a.handleListUsers)
					users.Post("/", a.handleCreateUser)
					users.Put("/{id}", a.handleUpdateUser)
					users.Delete("/{id}", a.handleDeleteUser)
				})
			})

			priv.Route("/chemicals", func(chem chi.Router) {
				chem.With(a.require(auth.Require(auth.PermReadChemicals))).
					Get("/", a.handleListChemicals)
				chem.With(a.require(auth.Require(auth.PermWriteChemicals))).
					Post("/", a.handleCreateChemical)
				chem.With(a.require(auth.Require(auth.PermReadChemicals))).
					Get("/{id}", a.handleGetChemical)
				chem.With(a.require(auth.Require(auth.PermWriteChemicals))).
					Put("/{id}", a.handleUpdateChemical)
				chem.With(a.require(auth.Require(auth.PermDeleteChemicals))).
					Delete("/{id}", a.handleDeleteChemical)
			})

			priv.Route("/experiments", func(exp chi.Router) {
				exp.With(a.require(auth.Require(auth.PermReadExperiments))).
					Get("/chemicals/available", a.handleAvailableChemicals)
				exp.With(a.require(auth.Require(auth.PermReadExperiments))).
					Get("/", a.handleListExperiments)
				exp.With(a.require(auth.Require(auth.PermWriteExperiments))).
					Post("/", a.handleCreateExperiment)
				exp.With(a.require(auth.Require(auth.PermReadExperiments))).
					Get("/{id}", a.handleGetExperiment)
				exp.With(a.require(auth.Require(auth.PermWriteExperiments))).
					Put("/{id}", a.handleUpdateExperiment)
				exp.With(a.require(auth.Require(auth.PermDeleteExperiments))).
					Delete("/{id}", a.handleDeleteExperiment)
			})

			priv.With(a.require(auth.Require(auth.PermViewDashboard))).
				Get("/dashboard/stats", a.handleDashboardStats)
		})
	})

	return a
}

// Handler returns the root handler wrapped with request metrics.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.mux)
}
