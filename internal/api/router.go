package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/covecrm/cove/internal/api/handler"
	"github.com/covecrm/cove/internal/api/middleware"
	"github.com/covecrm/cove/internal/apikey"
	"github.com/covecrm/cove/internal/audit"
	"github.com/covecrm/cove/internal/contact"
	"github.com/covecrm/cove/internal/deal"
	"github.com/covecrm/cove/internal/identity"
	"github.com/covecrm/cove/internal/organization"
	"github.com/covecrm/cove/internal/profile"
	"github.com/covecrm/cove/internal/viewcache"
)

// Paths the route guard redirects to.
const (
	loginPath   = "/login"
	landingPath = "/dashboard"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger      handler.DBPinger
	Version       string
	Provider      *identity.Provider
	Validator     *identity.Validator
	Keys          *apikey.Service
	KeyRepo       apikey.Repository
	Profiles      profile.Repository
	Contacts      contact.Repository
	Organizations organization.Repository
	Deals         deal.Repository
	Views         *viewcache.Versions
	Audit         audit.Recorder
	PaymentSecret []byte
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.PaymentSecret) > 0 {
		webhookHandler := handler.NewWebhookHandler(deps.PaymentSecret, deps.Profiles)
		r.Post("/webhooks/payment", webhookHandler.Payment)
	}

	// Everything below carries the session middleware and the route guard.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(deps.Validator, deps.Keys))
		r.Use(middleware.Guard(loginPath, landingPath))

		accountHandler := handler.NewAccountHandler(deps.Provider, deps.Validator, deps.Profiles)
		r.Post("/auth/register", accountHandler.Register)
		r.Post("/auth/login", accountHandler.Login)
		r.Post("/auth/logout", accountHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireIdentity())

			r.Get("/profile", accountHandler.Me)

			keyHandler := handler.NewAPIKeyHandler(deps.Keys, deps.KeyRepo)
			r.Route("/profile/apikeys", func(r chi.Router) {
				r.Post("/", keyHandler.Create)
				r.Get("/", keyHandler.List)
				r.Delete("/{id}", keyHandler.Revoke)
			})

			contactHandler := handler.NewContactHandler(deps.Contacts, deps.Views, deps.Audit)
			r.Route("/contacts", func(r chi.Router) {
				r.Post("/", contactHandler.Create)
				r.Get("/", contactHandler.List)
				r.Get("/{id}", contactHandler.GetByID)
				r.Patch("/{id}", contactHandler.Update)
				r.Delete("/{id}", contactHandler.Delete)
			})

			organizationHandler := handler.NewOrganizationHandler(deps.Organizations, deps.Views, deps.Audit)
			r.Route("/organizations", func(r chi.Router) {
				r.Post("/", organizationHandler.Create)
				r.Get("/", organizationHandler.List)
				r.Get("/{id}", organizationHandler.GetByID)
				r.Patch("/{id}", organizationHandler.Update)
				r.Delete("/{id}", organizationHandler.Delete)
			})

			dealHandler := handler.NewDealHandler(deps.Deals, deps.Views, deps.Audit)
			r.Route("/deals", func(r chi.Router) {
				r.Post("/", dealHandler.Create)
				r.Get("/", dealHandler.List)
				r.Get("/{id}", dealHandler.GetByID)
				r.Patch("/{id}", dealHandler.Update)
				r.Delete("/{id}", dealHandler.Delete)
			})
		})

		adminHandler := handler.NewAdminHandler(deps.Profiles)
		r.Route("/admin", func(r chi.Router) {
			r.With(middleware.RequireRole(deps.Profiles, profile.RoleAdmin, profile.RoleSuperAdmin)).
				Get("/profiles", adminHandler.ListProfiles)
			r.With(middleware.RequireRole(deps.Profiles, profile.RoleSuperAdmin)).
				Patch("/profiles/{id}/role", adminHandler.UpdateRole)
		})
	})

	return r
}
