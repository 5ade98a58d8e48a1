package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/lexrelay/lexrelay/internal/api/handler"
	"github.com/lexrelay/lexrelay/internal/api/middleware"
	"github.com/lexrelay/lexrelay/internal/audit"
	"github.com/lexrelay/lexrelay/internal/auth"
	"github.com/lexrelay/lexrelay/internal/client"
	"github.com/lexrelay/lexrelay/internal/config"
	"github.com/lexrelay/lexrelay/internal/importer"
	"github.com/lexrelay/lexrelay/internal/integration"
	"github.com/lexrelay/lexrelay/internal/settings"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Config          *config.Config
	DBPinger        handler.DBPinger
	AuthService     *auth.Service
	ClientRepo      client.Repository
	SettingsRepo    settings.Repository
	IntegrationRepo integration.Repository
	Factory         integration.Factory
	Importer        *importer.Importer
	AuditRecorder   *audit.Recorder
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS)
	r.Use(chimiddleware.Logger)

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Config.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	authHandler := handler.NewAuthHandler(deps.AuthService)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.SignUp)
		r.Post("/signin", authHandler.SignIn)
		r.Post("/reset", authHandler.RequestReset)
		r.Post("/reset/confirm", authHandler.ConfirmReset)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.AuthService))
			r.Post("/signout", authHandler.SignOut)
			r.Put("/password", authHandler.UpdatePassword)
			r.Get("/me", authHandler.Me)
			r.Patch("/me", authHandler.UpdateProfile)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(deps.AuthService))

		clientHandler := handler.NewClientHandler(deps.ClientRepo)
		r.Route("/clients", func(r chi.Router) {
			r.Post("/", clientHandler.Create)
			r.Get("/", clientHandler.List)
			r.Get("/export", clientHandler.Export)
			r.Get("/{id}", clientHandler.GetByID)
			r.Patch("/{id}", clientHandler.Update)
			r.Delete("/{id}", clientHandler.Delete)
		})

		settingsHandler := handler.NewSettingsHandler(deps.SettingsRepo)
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", settingsHandler.Get)
			r.Put("/", settingsHandler.Put)
		})

		managers := handler.NewManagers(deps.IntegrationRepo, deps.Factory)
		integrationHandler := handler.NewIntegrationHandler(deps.IntegrationRepo, managers)
		r.Route("/integrations", func(r chi.Router) {
			r.Get("/", integrationHandler.List)
			r.Post("/", integrationHandler.Add)
			r.Post("/test", integrationHandler.TestAll)
			r.Delete("/{vendor}", integrationHandler.Remove)
		})

		proxyHandler := handler.NewProxyHandler(deps.Config, deps.Factory, deps.Importer, deps.AuditRecorder, deps.IntegrationRepo)
		r.Route("/proxy", func(r chi.Router) {
			r.Post("/docusign", proxyHandler.DocuSign)
			r.Post("/slack", proxyHandler.Slack)
			r.Post("/trello", proxyHandler.Trello)
			r.Post("/lawpay", proxyHandler.LawPay)
		})
	})

	return r
}
