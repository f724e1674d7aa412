package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mind-engage/mindengage-courses/internal/access"
	api "github.com/mind-engage/mindengage-courses/internal/api/http"
	"github.com/mind-engage/mindengage-courses/internal/apperr"
	auth "github.com/mind-engage/mindengage-courses/internal/auth/middleware"
	"github.com/mind-engage/mindengage-courses/internal/catalog"
	"github.com/mind-engage/mindengage-courses/internal/certificate"
	"github.com/mind-engage/mindengage-courses/internal/config"
	"github.com/mind-engage/mindengage-courses/internal/course"
	"github.com/mind-engage/mindengage-courses/internal/db"
	"github.com/mind-engage/mindengage-courses/internal/grading"
	"github.com/mind-engage/mindengage-courses/internal/progress"
	"github.com/mind-engage/mindengage-courses/internal/storage"
)

func main() {
	cfg := config.Load()

	// --- Store ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var store interface {
		course.Store
		api.UserStore
	}
	if cfg.DBDriver == "memory" {
		store = course.NewMemoryStore()
	} else {
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			log.Fatalf("db open failed: %v", err)
		}
		defer dbh.Close()
		store = course.NewSQLStore(dbh)
	}
	seedAdmin(ctx, store, cfg)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// Certificates render remotely when a renderer service is configured.
	var renderer certificate.Renderer = certificate.TextRenderer{}
	if cfg.CertRendererURL != "" {
		renderer = certificate.NewHTTPRenderer(cfg.CertRendererURL, cfg.CertRendererTimeout)
	}

	svc := api.Services{
		Auth:            auth.NewAuthService(cfg.AuthHMACSecret),
		Users:           store,
		Catalog:         catalog.NewService(store, catalog.WithDefaultPassingScore(cfg.PassingScoreDefault)),
		Progress:        progress.NewService(store),
		Grading:         grading.NewEngine(store),
		Access:          access.NewResolver(store),
		Certs:           certificate.NewGate(store, renderer, certificate.WithBlobStore(bs)),
		Blobs:           bs,
		EnableLocalAuth: cfg.EnableLocalAuth,
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "X-Certificate-Number", "X-Certificate-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Route("/api", func(ar chi.Router) {
		api.Mount(ar, svc)
	})

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

// seedAdmin creates the configured admin account on first start.
func seedAdmin(ctx context.Context, users api.UserStore, cfg config.Config) {
	if cfg.AdminPassHash == "" {
		return
	}
	_, err := users.GetUserByEmail(ctx, cfg.AdminEmail)
	switch {
	case err == nil:
		return
	case !apperr.Is(err, apperr.KindNotFound):
		log.Fatalf("seed admin: %v", err)
	}
	u := course.User{Email: cfg.AdminEmail, Role: "admin", PasswordHash: cfg.AdminPassHash}
	if err := users.CreateUser(ctx, &u, "Admin", ""); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	log.Printf("seeded admin %s (id=%d)", u.Email, u.ID)
}
