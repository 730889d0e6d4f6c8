package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"photo-vault/internal/logging"
	"photo-vault/internal/media"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	DataDir     string
	DatabaseDir string
	Port        string

	ThumbnailMaxWidth int
	ThumbnailQuality  int

	VisionAPIKey  string
	VisionBaseURL string
	VisionModel   string
	VisionPrompt  string

	GeocoderAPIKey  string
	GeocoderBaseURL string

	LogStaticFiles  bool
	LogHealthChecks bool

	// Derived paths
	DatabasePath string
	UploadDir    string
}

// LoadConfig loads and validates configuration from the environment.
// A .env file in the working directory is honored when present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logging.Debug("no .env file loaded: %v", err)
	}

	printBanner()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	cfg := &Config{
		DataDir:           getEnv("DATA_DIR", "/data"),
		DatabaseDir:       getEnv("DATABASE_DIR", "/database"),
		Port:              getEnv("PORT", "8080"),
		ThumbnailMaxWidth: getEnvInt("THUMBNAIL_MAX_WIDTH", media.DefaultThumbnailMaxWidth),
		ThumbnailQuality:  getEnvInt("THUMBNAIL_QUALITY", media.DefaultThumbnailQuality),
		VisionAPIKey:      os.Getenv("VISION_API_KEY"),
		VisionBaseURL:     os.Getenv("VISION_BASE_URL"),
		VisionModel:       getEnv("VISION_MODEL", "gpt-4o-mini"),
		VisionPrompt:      os.Getenv("VISION_TAG_PROMPT"),
		GeocoderAPIKey:    os.Getenv("GEOCODER_API_KEY"),
		GeocoderBaseURL:   os.Getenv("GEOCODER_BASE_URL"),
		LogStaticFiles:    getEnvBool("LOG_STATIC_FILES", false),
		LogHealthChecks:   getEnvBool("LOG_HEALTH_CHECKS", false),
	}

	cfg.DatabasePath = filepath.Join(cfg.DatabaseDir, "vault.db")
	cfg.UploadDir = filepath.Join(cfg.DataDir, "uploads")

	logging.Info("  DATA_DIR:            %s", cfg.DataDir)
	logging.Info("  DATABASE_DIR:        %s", cfg.DatabaseDir)
	logging.Info("  PORT:                %s", cfg.Port)
	logging.Info("  THUMBNAIL_MAX_WIDTH: %d", cfg.ThumbnailMaxWidth)
	logging.Info("  THUMBNAIL_QUALITY:   %d", cfg.ThumbnailQuality)
	logging.Info("  VISION_MODEL:        %s", cfg.VisionModel)
	logging.Info("  Vision tagging:      %s", enabledString(cfg.VisionAPIKey != ""))
	logging.Info("  Reverse geocoding:   %s", enabledString(cfg.GeocoderAPIKey != ""))
	logging.Info("")

	if err := ensureWritableDir(cfg.DatabaseDir); err != nil {
		return nil, fmt.Errorf("database directory: %w", err)
	}
	if err := ensureWritableDir(cfg.UploadDir); err != nil {
		return nil, fmt.Errorf("upload directory: %w", err)
	}

	return cfg, nil
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
}

// GetRoutes walks the router and returns all registered routes.
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo
	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return nil // skip routes without a path template
		}
		methods, err := route.GetMethods()
		if err != nil {
			routes = append(routes, RouteInfo{Method: "*", Path: path})
			return nil
		}
		for _, m := range methods {
			routes = append(routes, RouteInfo{Method: m, Path: path})
		}
		return nil
	})
	return routes, err
}

// LogHTTPRoutes logs the registered routes at debug level.
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if !logging.IsDebugEnabled() {
		return
	}

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})

	logging.Debug("  Registered routes (%d total):", len(routes))
	for _, route := range routes {
		logging.Debug("    %-6s %s", route.Method, route.Path)
	}
	logging.Debug("")
}

// LogDatabaseInit logs database initialization time
func LogDatabaseInit(duration time.Duration) {
	logging.Info("  [OK] Database ready (%v)", duration.Round(time.Millisecond))
}

// LogServerStarted logs successful server start
func LogServerStarted(port string, startupDuration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:  %v", startupDuration.Round(time.Millisecond))
	logging.Info("  Application:   http://localhost:%s", port)
	logging.Info("  Metrics:       http://localhost:%s/metrics", port)
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
------------------------------------------------------------
    ____  __          __        _    __            ____
   / __ \/ /_  ____  / /_____  | |  / /___ ___  __/ / /_
  / /_/ / __ \/ __ \/ __/ __ \ | | / / __ '/ / / / / __/
 / ____/ / / / /_/ / /_/ /_/ / | |/ / /_/ / /_/ / / /_
/_/   /_/ /_/\____/\__/\____/  |___/\__,_/\__,_/_/\__/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Go:         %s (%s/%s)", GoVersion, runtime.GOOS, runtime.GOARCH)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func ensureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	probe := filepath.Join(dir, ".write-check")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("%s is not writable: %w", dir, err)
	}
	if err := os.Remove(probe); err != nil {
		logging.Warn("failed to remove write probe %s: %v", probe, err)
	}
	return nil
}

func enabledString(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("invalid value for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
