// main wires stores, the audit engine, services, and the HTTP router. With a
// DATABASE_URL it runs against PostgreSQL; without one it falls back to the
// in-memory stores, which is enough for local development.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"verdant/internal/accession"
	"verdant/internal/audit"
	"verdant/internal/invitation"
	jwttoken "verdant/internal/jwt_token"
	"verdant/internal/location"
	"verdant/internal/organization"
	"verdant/internal/permission"
	"verdant/internal/platform/config"
	"verdant/internal/platform/httpserver"
	"verdant/internal/platform/logger"
	"verdant/internal/platform/metrics"
	"verdant/internal/platform/postgres"
	"verdant/internal/platform/redis"
	"verdant/internal/profile"
	"verdant/internal/taxon"
	httptransport "verdant/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

type stores struct {
	audit         audit.Store
	organizations organization.Store
	taxa          taxon.Store
	accessions    accession.Store
	locations     location.Store
	profiles      profile.Store
	invitations   invitation.Store
	grants        permission.GrantStore
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	m := metrics.New()

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := postgres.Migrate(ctx, db, cfg.MigrationsDir); err != nil {
			return err
		}
		log.Info("connected to postgres")
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	st := buildStores(db)

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	var permCache permission.Cache
	if redisClient != nil {
		defer redisClient.Close()
		permCache = permission.NewRedisCache(redisClient, permission.DefaultCacheTTL)
		log.Info("permission cache backed by redis")
	} else {
		permCache = permission.NewMemoryCache(permission.DefaultCacheTTL)
	}

	recorder := audit.NewRecorder(st.audit, m)
	sessions := audit.Sessions(db, recorder)

	profileService := profile.NewService(st.profiles, log)
	orgService := organization.NewService(st.organizations, sessions, profile.NewMemberResolver(st.profiles), log)
	checker := permission.NewChecker(st.grants, orgService, permCache, m, log)
	guard := permission.NewMiddleware(checker, log)

	taxonService := taxon.NewService(st.taxa, sessions, log)
	locationService := location.NewService(st.locations, sessions, log)
	accessionService := accession.NewService(st.accessions, sessions, taxonService, locationService, log)
	activityService := audit.NewService(st.audit, profile.NewActorResolver(st.profiles), log)
	invitationService := invitation.NewService(st.invitations, orgService, checker, log)

	router := httptransport.NewRouter(httptransport.Dependencies{
		Logger:      log,
		Metrics:     m,
		JWT:         jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience),
		CORSOrigins: cfg.CORSOrigins,

		Memberships: orgService,
		Guard:       guard,

		Organizations: organization.NewHandler(orgService, guard, log),
		Taxa:          taxon.NewHandler(taxonService, guard, log),
		Accessions:    accession.NewHandler(accessionService, guard, log),
		Locations:     location.NewHandler(locationService, guard, log),
		Activity:      audit.NewHandler(activityService, log),
		Invitations:   invitation.NewHandler(invitationService, guard, log),
		Permissions:   permission.NewHandler(checker, guard, log),
		Profile:       profile.NewHandler(profileService, log),

		Health: healthHandler(db, redisClient),
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting verdant", "addr", cfg.Addr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func buildStores(db *sql.DB) stores {
	if db == nil {
		return stores{
			audit:         audit.NewMemoryStore(),
			organizations: organization.NewMemoryStore(),
			taxa:          taxon.NewMemoryStore(),
			accessions:    accession.NewMemoryStore(),
			locations:     location.NewMemoryStore(),
			profiles:      profile.NewMemoryStore(),
			invitations:   invitation.NewMemoryStore(),
			grants:        permission.NewMemoryGrantStore(),
		}
	}
	return stores{
		audit:         audit.NewPostgres(db),
		organizations: organization.NewPostgres(db),
		taxa:          taxon.NewPostgres(db),
		accessions:    accession.NewPostgres(db),
		locations:     location.NewPostgres(db),
		profiles:      profile.NewPostgres(db),
		invitations:   invitation.NewPostgres(db),
		grants:        permission.NewPostgres(db),
	}
}

func healthHandler(db *sql.DB, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				http.Error(w, `{"status":"degraded","postgres":"down"}`, http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				http.Error(w, `{"status":"degraded","redis":"down"}`, http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
