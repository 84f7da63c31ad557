// Package httpapi exposes the auth, role, search and OAuth operations over
// HTTP under /api/v1.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/moviesauth/internal/logging"
	"github.com/dmitrijs2005/moviesauth/internal/server/models"
	"github.com/dmitrijs2005/moviesauth/internal/server/ratelimit"
	"github.com/dmitrijs2005/moviesauth/internal/server/search"
	"github.com/dmitrijs2005/moviesauth/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, login, password, signinData string) (*services.TokenPair, error)
	ValidateAccess(ctx context.Context, token string) (*services.Identity, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, token string) error
	LoginHistory(ctx context.Context, login string, pageNumber, pageSize int) ([]models.LoginEvent, error)
}

type RoleService interface {
	Create(ctx context.Context, name, description string) (*models.Role, error)
	Get(ctx context.Context, id string) (*models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
	Update(ctx context.Context, id, name, description string) (*models.Role, error)
	Delete(ctx context.Context, id string) error
	AssignToUser(ctx context.Context, login, roleID string) error
	RevokeFromUser(ctx context.Context, login, roleID string) error
}

type OAuthService interface {
	AuthorizeURL(provider string) (string, string, error)
	Callback(ctx context.Context, provider, code, signinData string) (*services.TokenPair, error)
}

// Reader is the read side of one document kind.
type Reader[T search.Document] interface {
	GetByID(ctx context.Context, id string) (*T, error)
	List(ctx context.Context, p search.ListParams) ([]T, error)
}

// Per-route request budgets for one client address.
var (
	limitSignup     = ratelimit.Rule{Requests: 5, Window: time.Minute}
	limitSignin     = ratelimit.Rule{Requests: 5, Window: time.Minute}
	limitHistory    = ratelimit.Rule{Requests: 5, Window: time.Minute}
	limitCheckToken = ratelimit.Rule{Requests: 15, Window: time.Minute}
	limitRefresh    = ratelimit.Rule{Requests: 5, Window: 2 * time.Minute}
	limitRoleCreate = ratelimit.Rule{Requests: 5, Window: time.Minute}
	limitRoleList   = ratelimit.Rule{Requests: 10, Window: time.Minute}
	limitRoleGet    = ratelimit.Rule{Requests: 15, Window: time.Minute}
	limitRoleUpdate = ratelimit.Rule{Requests: 5, Window: time.Minute}
	limitRoleDelete = ratelimit.Rule{Requests: 3, Window: time.Minute}
)

// Deps are the services the router dispatches to. OAuth may be nil, in
// which case the /oauth routes are not mounted. Limiter may be nil, in which
// case nothing is throttled.
type Deps struct {
	Users   UserService
	Roles   RoleService
	OAuth   OAuthService
	Films   Reader[models.Film]
	Genres  Reader[models.Genre]
	Persons Reader[models.Person]

	Limiter ratelimit.Limiter

	AllowedOrigins []string
}

type Server struct {
	address string
	users   UserService
	roles   RoleService
	oauth   OAuthService
	limiter ratelimit.Limiter
	handler http.Handler
	logger  logging.Logger
}

func NewServer(address string, deps Deps, l logging.Logger) *Server {
	s := &Server{
		address: address,
		users:   deps.Users,
		roles:   deps.Roles,
		oauth:   deps.OAuth,
		limiter: deps.Limiter,
		logger:  l.With("module", "http_server"),
	}
	s.handler = s.routes(deps)
	return s
}

func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes(deps Deps) http.Handler {
	r := chi.NewRouter()

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/users", func(r chi.Router) {
			r.With(s.throttle("signup", limitSignup)).Post("/signup", s.signup)
			r.With(s.throttle("signin", limitSignin)).Post("/signin", s.signin)
			r.With(s.throttle("check_token", limitCheckToken)).Post("/check_token", s.checkToken)
			r.With(s.throttle("refresh", limitRefresh)).Post("/refresh", s.refresh)
			r.Post("/logout", s.logout)
			r.With(s.throttle("signin_history", limitHistory)).Get("/signin_history", s.signinHistory)
		})

		r.Route("/roles", func(r chi.Router) {
			r.With(s.throttle("roles_list", limitRoleList)).Get("/", s.listRoles)
			r.With(s.throttle("roles_get", limitRoleGet)).Get("/{id}", s.getRole)
			r.Group(func(r chi.Router) {
				r.Use(s.Authenticate, RequireSuperuser)
				r.With(s.throttle("roles_create", limitRoleCreate)).Post("/", s.createRole)
				r.With(s.throttle("roles_update", limitRoleUpdate)).Put("/{id}", s.updateRole)
				r.With(s.throttle("roles_delete", limitRoleDelete)).Delete("/{id}", s.deleteRole)
				r.Post("/{id}/users/{login}", s.assignRole)
				r.Delete("/{id}/users/{login}", s.revokeRole)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.Authenticate)
			mountReader(r, "/films", deps.Films)
			mountReader(r, "/genres", deps.Genres)
			mountReader(r, "/persons", deps.Persons)
		})

		if deps.OAuth != nil {
			r.Get("/oauth/{provider}/login", s.oauthLogin)
			r.Get("/oauth/{provider}/callback", s.oauthCallback)
		}
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
