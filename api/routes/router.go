package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/stockhub-backend/api/controllers"
	"github.com/angelmondragon/stockhub-backend/api/middleware"
	"github.com/angelmondragon/stockhub-backend/internal/auth"
	"github.com/angelmondragon/stockhub-backend/internal/categories"
	"github.com/angelmondragon/stockhub-backend/internal/companies"
	"github.com/angelmondragon/stockhub-backend/internal/companyctx"
	"github.com/angelmondragon/stockhub-backend/internal/items"
	"github.com/angelmondragon/stockhub-backend/internal/movements"
	"github.com/angelmondragon/stockhub-backend/internal/standardlists"
	"github.com/angelmondragon/stockhub-backend/internal/superadmin"
	"github.com/angelmondragon/stockhub-backend/internal/units"
	"github.com/angelmondragon/stockhub-backend/internal/withdrawals"
	"github.com/angelmondragon/stockhub-backend/pkg/auth/session"
	"github.com/angelmondragon/stockhub-backend/pkg/config"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
	"github.com/angelmondragon/stockhub-backend/pkg/logger"
	"github.com/angelmondragon/stockhub-backend/pkg/metrics"
	"github.com/angelmondragon/stockhub-backend/pkg/redis"
)

// CompanyContext is the selection surface the router needs: the directory
// endpoints plus per-request revalidation.
type CompanyContext interface {
	controllers.CompanyContextService
	Current(ctx context.Context, userID uuid.UUID) (companyctx.Selection, error)
}

// RedisStore backs rate limiting and idempotency.
type RedisStore interface {
	redis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(parts ...string) string
}

// Dependencies collects everything the HTTP surface is wired against.
type Dependencies struct {
	DB       controllers.Pinger
	Redis    controllers.Pinger
	Store    RedisStore
	Sessions session.AccessSessionChecker
	Gatherer prometheus.Gatherer
	Metrics  *metrics.HTTPMetrics

	Auth           auth.Service
	Companies      companies.Service
	CompanyContext CompanyContext
	Categories     categories.Service
	Units          units.Service
	Items          items.Service
	Movements      movements.Service
	StandardLists  standardlists.Service
	Withdrawals    withdrawals.Executor
	SuperAdmin     superadmin.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.CORS),
		middleware.Metrics(deps.Metrics),
		middleware.Logging(logg),
	)

	loginPolicy := middleware.LoginRateLimitPolicy(cfg.AuthRateLimit)
	registerPolicy := middleware.RegisterRateLimitPolicy(cfg.AuthRateLimit)
	idempotent := middleware.Idempotency(deps.Store, cfg.Idempotency.TTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}, logg))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Store, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Store, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Get("/me", controllers.Me(deps.Auth, logg))

		r.Route("/companies", func(r chi.Router) {
			r.Get("/", controllers.CompanyDirectory(deps.Companies, logg))
			r.Post("/", controllers.CompanyCreate(deps.Companies, logg))
			r.Get("/{companyId}", controllers.CompanyGet(deps.Companies, logg))
			r.Patch("/{companyId}", controllers.CompanyUpdate(deps.Companies, logg))
			r.Delete("/{companyId}", controllers.CompanyDeactivate(deps.Companies, logg))
			r.Get("/{companyId}/members", controllers.CompanyMembers(deps.Companies, logg))
			r.Post("/{companyId}/members", controllers.CompanyAddMember(deps.Companies, logg))
			r.Patch("/{companyId}/members/{userId}", controllers.CompanyUpdateMember(deps.Companies, logg))
			r.Delete("/{companyId}/members/{userId}", controllers.CompanyRemoveMember(deps.Companies, logg))
		})

		r.Route("/company-context", func(r chi.Router) {
			r.Get("/", controllers.CompanyContextCurrent(deps.CompanyContext, logg))
			r.Post("/switch", controllers.CompanyContextSwitch(deps.CompanyContext, logg))
			r.Delete("/", controllers.CompanyContextClear(deps.CompanyContext, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.CompanyScope(deps.CompanyContext, logg))
			readers := middleware.RequireCompanyPermission(enums.PermissionRead, logg)
			writers := middleware.RequireCompanyPermission(enums.PermissionWrite, logg)
			admins := middleware.RequireCompanyPermission(enums.PermissionAdmin, logg)

			r.Route("/categories", func(r chi.Router) {
				r.With(readers).Get("/", controllers.CategoryList(deps.Categories, logg))
				r.With(writers).Post("/", controllers.CategoryCreate(deps.Categories, logg))
				r.With(readers).Get("/{categoryId}", controllers.CategoryGet(deps.Categories, logg))
				r.With(writers).Patch("/{categoryId}", controllers.CategoryUpdate(deps.Categories, logg))
				r.With(admins).Delete("/{categoryId}", controllers.CategoryDelete(deps.Categories, logg))
			})

			r.Route("/units", func(r chi.Router) {
				r.With(readers).Get("/", controllers.UnitList(deps.Units, logg))
				r.With(writers).Post("/", controllers.UnitCreate(deps.Units, logg))
				r.With(readers).Get("/{unitId}", controllers.UnitGet(deps.Units, logg))
				r.With(writers).Patch("/{unitId}", controllers.UnitUpdate(deps.Units, logg))
				r.With(admins).Delete("/{unitId}", controllers.UnitDelete(deps.Units, logg))
			})

			r.Route("/items", func(r chi.Router) {
				r.With(readers).Get("/", controllers.ItemList(deps.Items, logg))
				r.With(writers).Post("/", controllers.ItemCreate(deps.Items, logg))
				r.With(readers).Get("/{itemId}", controllers.ItemGet(deps.Items, logg))
				r.With(writers).Patch("/{itemId}", controllers.ItemUpdate(deps.Items, logg))
				r.With(admins).Delete("/{itemId}", controllers.ItemDelete(deps.Items, logg))
				r.With(readers).Get("/{itemId}/reconcile", controllers.ItemReconcile(deps.Items, logg))
			})

			r.Route("/movements", func(r chi.Router) {
				r.With(readers).Get("/", controllers.MovementList(deps.Movements, logg))
				r.With(writers, idempotent).Post("/", controllers.MovementRecord(deps.Movements, logg))
			})

			r.Route("/standard-lists", func(r chi.Router) {
				r.With(readers).Get("/", controllers.StandardListList(deps.StandardLists, logg))
				r.With(writers).Post("/", controllers.StandardListCreate(deps.StandardLists, logg))
				r.With(readers).Get("/{listId}", controllers.StandardListGet(deps.StandardLists, logg))
				r.With(writers).Patch("/{listId}", controllers.StandardListUpdate(deps.StandardLists, logg))
				r.With(admins).Delete("/{listId}", controllers.StandardListDelete(deps.StandardLists, logg))
				r.With(writers, idempotent).Post("/{listId}/withdraw", controllers.StandardListWithdraw(deps.Withdrawals, logg))
			})
		})

		r.Route("/superadmin", func(r chi.Router) {
			r.Use(middleware.RequireSuperAdmin(deps.SuperAdmin, logg))
			r.Get("/companies", controllers.AdminCompanies(deps.SuperAdmin, logg))
			r.Get("/users", controllers.AdminUsers(deps.SuperAdmin, logg))
			r.Get("/users/without-company", controllers.AdminUsersWithoutCompany(deps.SuperAdmin, logg))
			r.Post("/users/{userId}/assign-orphaned", controllers.AdminAssignOrphaned(deps.SuperAdmin, logg))
			r.Put("/users/{userId}/super-admin", controllers.AdminSetSuperAdmin(deps.SuperAdmin, logg))
		})
	})

	return r
}
