// Package server provides a public API for embedding the federated STAC
// gateway.
package server

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rkm/fedeo-stac-gateway/internal/api"
	"github.com/rkm/fedeo-stac-gateway/internal/config"
	"github.com/rkm/fedeo-stac-gateway/internal/federation"
	"github.com/rkm/fedeo-stac-gateway/internal/fields"
	"github.com/rkm/fedeo-stac-gateway/internal/resto"
)

// BackendOptions configures one federation backend.
type BackendOptions struct {
	// Name is the federation backend name used in responses and routes.
	Name string

	// BaseURL is the backend's resto API root (required).
	BaseURL string

	// APIKey is the bearer token for download and order requests.
	APIKey string

	// Timeout is the per-request timeout.
	// Default: 60s
	Timeout time.Duration
}

// Options configures the embedded gateway.
type Options struct {
	// BaseURL is the public-facing URL for self-referential links (required).
	// Example: "https://api.example.com/stac" or "http://localhost:8080"
	BaseURL string

	// Backends lists the federation backends to register.
	Backends []BackendOptions

	// ProductTypesDir is the path to product type definition JSON files
	// (required).
	ProductTypesDir string

	// Title is the STAC API title.
	// Default: "Federated EO STAC API"
	Title string

	// Description is the STAC API description.
	Description string

	// DefaultLimit is the default number of items per page.
	// Default: 20
	DefaultLimit int

	// MaxLimit is the maximum number of items per page.
	// Default: 250
	MaxLimit int

	// EnableQueryables enables the /queryables endpoints.
	EnableQueryables bool

	// EnableCollectionOrder enables the order placement endpoints.
	EnableCollectionOrder bool

	// EnableDataDownload enables the asset proxy endpoints.
	EnableDataDownload bool

	// Logger is the slog logger to use.
	// Default: slog.Default()
	Logger *slog.Logger
}

// Server is a federated STAC gateway that can be embedded in another
// application.
type Server struct {
	router  chi.Router
	gateway *federation.Gateway
}

// New creates a new embedded gateway with the given options.
func New(opts Options) (*Server, error) {
	// Apply defaults
	if opts.Title == "" {
		opts.Title = "Federated EO STAC API"
	}
	if opts.Description == "" {
		opts.Description = "STAC API gateway over a federated Earth-observation search engine"
	}
	if opts.DefaultLimit == 0 {
		opts.DefaultLimit = 20
	}
	if opts.MaxLimit == 0 {
		opts.MaxLimit = 250
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	// Build internal config
	cfg := &config.Config{
		STAC: config.STACConfig{
			Version:     "1.0.0",
			BaseURL:     opts.BaseURL,
			Title:       opts.Title,
			Description: opts.Description,
		},
		Federation: config.FederationConfig{
			ProductTypesDir: opts.ProductTypesDir,
			Count:           true,
		},
		Features: config.FeatureConfig{
			EnableDataDownload:    opts.EnableDataDownload,
			EnableCollectionOrder: opts.EnableCollectionOrder,
			EnableQueryables:      opts.EnableQueryables,
			DefaultLimit:          opts.DefaultLimit,
			MaxLimit:              opts.MaxLimit,
		},
	}

	// Load product types
	productTypes, err := config.LoadProductTypes(opts.ProductTypesDir)
	if err != nil {
		return nil, err
	}

	// Create the gateway and register backends
	gateway := federation.NewGateway(productTypes, opts.Logger)
	for _, b := range opts.Backends {
		timeout := b.Timeout
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		client := resto.NewClient(b.BaseURL, timeout).WithLogger(opts.Logger)
		if b.APIKey != "" {
			client = client.WithAPIKey(b.APIKey)
		}
		backend := resto.NewBackend(b.Name, client, opts.Logger)
		gateway.RegisterPlugin(backend)
		gateway.RegisterDownloader(b.Name, backend)
	}

	// Create handlers and router
	handlers := api.NewHandlers(cfg, gateway, fields.Default(), opts.Logger)
	router := api.NewRouter(handlers, opts.Logger)

	return &Server{
		router:  router,
		gateway: gateway,
	}, nil
}

// Router returns the chi.Router for mounting in another application.
func (s *Server) Router() chi.Router {
	return s.router
}

// Gateway exposes the underlying federation gateway, for registering
// custom plugins before serving traffic.
func (s *Server) Gateway() *federation.Gateway {
	return s.gateway
}
