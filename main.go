package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"photo-vault/internal/database"
	"photo-vault/internal/geocode"
	"photo-vault/internal/handlers"
	"photo-vault/internal/ingest"
	"photo-vault/internal/logging"
	"photo-vault/internal/media"
	"photo-vault/internal/middleware"
	"photo-vault/internal/startup"
	"photo-vault/internal/tagging"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// libvips backs HEIC conversion; without it uploads still work but
	// special formats are rejected at normalization.
	if err := media.InitVips(); err != nil {
		logging.Warn("libvips unavailable, special-format uploads will be rejected: %v", err)
	}
	defer media.ShutdownVips()

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Clean up expired sessions periodically
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			db.CleanExpiredSessions(context.Background())
		}
	}()

	// Best-effort enrichers. Either may be disabled by leaving its API
	// key unset.
	tagger := tagging.New(db, tagging.Config{
		APIKey:  config.VisionAPIKey,
		BaseURL: config.VisionBaseURL,
		Model:   config.VisionModel,
		Prompt:  config.VisionPrompt,
	})
	geocoder := geocode.New(config.GeocoderAPIKey, config.GeocoderBaseURL)

	pipeline, err := ingest.New(db, tagger, geocoder, config.UploadDir,
		config.ThumbnailMaxWidth, config.ThumbnailQuality)
	if err != nil {
		startup.LogFatal("Failed to initialize ingestion pipeline: %v", err)
	}

	// Initialize handlers
	h := handlers.New(db, pipeline, config.UploadDir)

	// Setup router
	router := setupRouter(h)

	// Log routes dynamically
	startup.LogHTTPRoutes(router)

	// Apply middleware: auth innermost, then metrics, logging, compression
	authedRouter := h.AuthMiddleware(router)
	metered := middleware.Metrics(middleware.DefaultMetricsConfig())(authedRouter)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	logged := middleware.Logger(loggingConfig)(metered)

	compressionConfig := middleware.DefaultCompressionConfig()
	handler := middleware.Compression(compressionConfig)(logged)

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	go handleShutdown(srv)

	// Start server
	startup.LogServerStarted(config.Port, time.Since(startTime))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.Version).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/register", h.Register).Methods("POST")
	auth.HandleFunc("/login", h.Login).Methods("POST")
	auth.HandleFunc("/logout", h.Logout).Methods("POST")
	auth.HandleFunc("/check", h.CheckAuth).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/upload", h.Upload).Methods("POST")
	api.HandleFunc("/images/edit", h.EditImage).Methods("POST")
	api.HandleFunc("/images", h.ListImages).Methods("GET")
	api.HandleFunc("/images/{id}", h.GetImage).Methods("GET")
	api.HandleFunc("/images/{id}", h.DeleteImage).Methods("DELETE")
	api.HandleFunc("/images/{id}/tags", h.AttachTags).Methods("POST")
	api.HandleFunc("/images/{id}/tags/{tagId}", h.DetachTag).Methods("DELETE")

	// Tags
	api.HandleFunc("/tags", h.ListTags).Methods("GET")
	api.HandleFunc("/tags", h.CreateTag).Methods("POST")
	api.HandleFunc("/tags/{id}", h.RenameTag).Methods("PATCH")
	api.HandleFunc("/tags/{id}", h.DeleteTag).Methods("DELETE")

	// Stored blobs. Image records carry /uploads/... URLs; the /api
	// prefix serves the same files for clients that stay under /api.
	api.HandleFunc("/uploads/{filename}", h.ServeUpload).Methods("GET")
	r.HandleFunc("/uploads/{filename}", h.ServeUpload).Methods("GET")

	return r
}

func handleShutdown(srv *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	}

	startup.LogShutdownComplete()
}
