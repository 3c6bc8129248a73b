package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"

	"github.com/dpup/prefab"

	"github.com/dpup/survey.ersn.net/server/internal/cache"
	"github.com/dpup/survey.ersn.net/server/internal/clients/routedefs"
	"github.com/dpup/survey.ersn.net/server/internal/config"
	"github.com/dpup/survey.ersn.net/server/internal/services"
)

func main() {
	// Load configuration using Prefab's config system
	appConfig := loadConfig()
	appConfig.Normalize()

	// Initialize cache and route definition loader
	cacheInstance := cache.New()
	loader := routedefs.NewLoader()

	// Initialize the survey service and load configured routes
	surveyService := services.NewSurveyService(loader, cacheInstance, &appConfig.Survey)

	log.Printf("Route Position API Server starting")
	log.Printf("Routes configured: %d", len(appConfig.Survey.Routes))
	log.Printf("Output unit: %s", appConfig.Survey.OutputUnit)

	ctx := context.Background()
	if err := surveyService.LoadRoutes(ctx); err != nil {
		log.Fatalf("Failed to load routes: %v", err)
	}

	// Keep re-issued route files and stale cache entries under control
	periodicRefresh := services.NewPeriodicRefreshService(surveyService, &appConfig.Survey)
	if err := periodicRefresh.Start(ctx); err != nil {
		log.Printf("Failed to start periodic route reload: %v", err)
	}
	cacheInstance.StartPeriodicCleanup(ctx, appConfig.Survey.CacheCleanupInterval)

	// Create Prefab server; port etc. come from prefab.yaml/env vars
	server := prefab.New(
		prefab.WithHTTPHandlerFunc("/", homepageHandler),
		prefab.WithHTTPHandlerFunc("/v1/routes", surveyService.HandleRoutes),
		prefab.WithHTTPHandlerFunc("/v1/position", surveyService.HandlePosition),
		prefab.WithHTTPHandlerFunc("/v1/positions", surveyService.HandlePositions),
		prefab.WithHTTPHandlerFunc("/v1/samples", surveyService.HandleSamples),
		prefab.WithHTTPHandlerFunc("/v1/offset", surveyService.HandleOffset),
	)

	// Start the server (blocks until shutdown)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadConfig loads configuration using Prefab's config system
// Configuration is loaded from prefab.yaml and environment variables with PF__ prefix
func loadConfig() *config.Config {
	appConfig := &config.Config{}

	if err := prefab.Config.Unmarshal("survey", &appConfig.Survey); err != nil {
		log.Fatalf("Failed to unmarshal survey section: %v", err)
	}

	return appConfig
}

// homepageHandler serves a simple HTML homepage at the server root
func homepageHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	html := `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>survey.ersn.net</title>
    <style>
        body {
            font-family: 'Courier New', Consolas, monospace;
            background: #000;
            color: #0f0;
            padding: 20px;
            line-height: 1.4;
        }
        a { color: #0ff; text-decoration: none; }
        a:hover { text-decoration: underline; }
        pre { margin: 0; }
        .header { color: #ff0; }
    </style>
</head>
<body>
<pre>
<span class="header">survey.ersn.net</span>

Route position API server: references surveyed points against route
centerlines (KP chainage and signed DCC offset).

<span class="header">API Endpoints:</span>

  <a href="/v1/routes">GET  /v1/routes</a>      - List loaded routes
  GET  /v1/position    - Reference one point (?route=&amp;easting=&amp;northing=)
  POST /v1/positions   - Reference a point set
  GET  /v1/samples     - Centerline samples (?route=&amp;interval=)
  GET  /v1/offset      - Resolve a KP/offset pair (?route=&amp;kp=&amp;offset=)

<span class="header">Example Usage:</span>
  curl "http://localhost:8080/v1/position?route=pipeline-12&amp;easting=415120.5&amp;northing=6423077.2"
</pre>
</body>
</html>`

	if _, err := fmt.Fprint(w, html); err != nil {
		slog.Error("Failed to write homepage HTML", "error", err)
	}
}
