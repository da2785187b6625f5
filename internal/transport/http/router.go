// Package http assembles the API surface: platform middleware, public
// endpoints, and the organization-scoped resource routes.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"verdant/internal/accession"
	"verdant/internal/audit"
	"verdant/internal/invitation"
	"verdant/internal/location"
	"verdant/internal/organization"
	"verdant/internal/permission"
	"verdant/internal/platform/metrics"
	platformmw "verdant/internal/platform/middleware"
	"verdant/internal/profile"
	"verdant/internal/taxon"
)

const requestTimeout = 30 * time.Second

// Dependencies carries everything the router mounts. Handlers own their
// routes; the router decides where subtrees live and which middleware wraps
// them.
type Dependencies struct {
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	JWT         platformmw.JWTValidator
	CORSOrigins []string

	Memberships organization.MembershipChecker
	Guard       *permission.Middleware

	Organizations *organization.Handler
	Taxa          *taxon.Handler
	Accessions    *accession.Handler
	Locations     *location.Handler
	Activity      *audit.Handler
	Invitations   *invitation.Handler
	Permissions   *permission.Handler
	Profile       *profile.Handler

	Health http.HandlerFunc
}

// NewRouter builds the full route tree.
//
// Everything except /healthz and /metrics requires a bearer token. Resource
// routes live under /orgs/{org_id} behind the membership middleware, which
// establishes the organization scope the audit trail and permission checks
// read from the request context.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(platformmw.RequestID)
	r.Use(platformmw.Recovery(deps.Logger))
	r.Use(platformmw.Logger(deps.Logger))
	r.Use(platformmw.Latency(deps.Metrics))
	r.Use(platformmw.Timeout(requestTimeout))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/healthz", deps.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(platformmw.RequireAuth(deps.JWT, deps.Logger))
		r.Use(platformmw.ContentTypeJSON)

		r.Route("/profile", deps.Profile.Register)
		r.Route("/invitations", deps.Invitations.Register)

		r.Route("/orgs", func(r chi.Router) {
			deps.Organizations.Register(r)

			r.Route("/{org_id}", func(r chi.Router) {
				r.Use(organization.RequireMember(deps.Memberships, deps.Logger))

				deps.Organizations.RegisterScoped(r)

				r.Group(func(r chi.Router) {
					r.Use(deps.Guard.Require("activity:read"))
					deps.Activity.Register(r)
				})

				r.Route("/taxa", deps.Taxa.Register)
				r.Route("/accessions", deps.Accessions.Register)
				r.Route("/locations", deps.Locations.Register)
				r.Route("/invitations", deps.Invitations.RegisterScoped)
				r.Route("/users/{user_id}/permissions", deps.Permissions.Register)
			})
		})
	})

	return r
}
