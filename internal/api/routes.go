// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/iagro/supervisory/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store            storage.Store
	Sessions         SessionManager
	Variables        VariableSource
	History          HistoryReader // nil when history is disabled
	Telemetry        Telemetry
	Logger           zerolog.Logger
	Version          string
	AllowedFileTypes string
	UploadLimit      string // body limit for background uploads, e.g. "10M"; empty keeps the global limit
	PushInterval     time.Duration
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Catalog   CatalogHandler
	Variables VariableHandler
	Canvas    CanvasHandler
	Editor    EditorHandler
	Upload    UploadHandler
	Socket    *CanvasSocketHandler

	UploadLimit string
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(deps.Version, deps.Sessions, deps.Variables),
		Catalog:   NewCatalogHandler(),
		Variables: NewVariableHandler(deps.Variables, deps.History),
		Canvas:    NewCanvasHandler(deps.Sessions, deps.Variables, deps.Telemetry, deps.Logger),
		Editor:    NewEditorHandler(deps.Sessions, deps.Variables, deps.Telemetry),
		Upload:    NewUploadHandler(deps.Store, deps.Sessions, deps.AllowedFileTypes),
		Socket:    NewCanvasSocketHandler(deps.Sessions, deps.Variables, deps.Telemetry, deps.Logger, deps.PushInterval),

		UploadLimit: deps.UploadLimit,
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Palette and PLC tags
	apiGroup.GET("/catalog", handlers.Catalog.HandleGetCatalog)
	apiGroup.GET("/variables", handlers.Variables.HandleListVariables)
	apiGroup.GET("/variables/:address/history", handlers.Variables.HandleVariableHistory)

	// Canvas sessions
	canvasGroup := apiGroup.Group("/canvas")
	canvasGroup.POST("", handlers.Canvas.HandleCreateCanvas)
	canvasGroup.GET("", handlers.Canvas.HandleListCanvases)
	canvasGroup.GET("/:id", handlers.Canvas.HandleGetCanvas)
	canvasGroup.GET("/:id/scene/msgpack", handlers.Canvas.HandleGetSceneMsgpack)
	canvasGroup.DELETE("/:id", handlers.Canvas.HandleDeleteCanvas)

	// Components and gestures
	canvasGroup.POST("/:id/components", handlers.Canvas.HandleAddComponent)
	canvasGroup.PUT("/:id/components/:cid", handlers.Canvas.HandleUpdateComponent)
	canvasGroup.DELETE("/:id/components/:cid", handlers.Canvas.HandleDeleteComponent)
	canvasGroup.POST("/:id/pointer", handlers.Canvas.HandlePointer)

	// Properties editor
	canvasGroup.GET("/:id/editor", handlers.Editor.HandleGetEditor)
	canvasGroup.PATCH("/:id/editor", handlers.Editor.HandleEditField)
	canvasGroup.POST("/:id/editor/delete", handlers.Editor.HandleEditorDelete)

	// Background images
	var uploadMiddleware []echo.MiddlewareFunc
	if handlers.UploadLimit != "" {
		uploadMiddleware = append(uploadMiddleware, middleware.BodyLimit(handlers.UploadLimit))
	}
	canvasGroup.POST("/:id/background", handlers.Upload.HandleUploadBackground, uploadMiddleware...)
	canvasGroup.DELETE("/:id/background", handlers.Upload.HandleClearBackground)
	apiGroup.GET("/files", handlers.Upload.HandleListFiles)
	apiGroup.GET("/files/:id", handlers.Upload.HandleGetFile)

	// Live canvas
	apiGroup.GET("/ws/canvas/:id", handlers.Socket.HandleWebSocket)
}

// HTTPRecorder counts served requests
type HTTPRecorder interface {
	RecordHTTPRequest(method, code string)
}

// MiddlewareConfig configures SetupMiddleware
type MiddlewareConfig struct {
	Logger         zerolog.Logger
	RequestLogging bool
	Recorder       HTTPRecorder
	BodyLimit      string
	EnableCORS     bool
	AllowOrigins   string
	RequestTimeout time.Duration
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg MiddlewareConfig) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			cfg.Logger.Error().Err(err).Bytes("stack", stack).Msg("handler panic")
			return err
		},
	}))

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging if disabled in config
			if !cfg.RequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" || path == "/metrics" || strings.HasSuffix(path, "/pointer")
		},
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := cfg.Logger.Info()
			if v.Error != nil {
				ev = cfg.Logger.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	}))

	if cfg.Recorder != nil {
		e.Use(countRequests(cfg.Recorder))
	}

	if cfg.RequestTimeout > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout: cfg.RequestTimeout,
			Skipper: func(c echo.Context) bool {
				return strings.HasPrefix(c.Request().URL.Path, "/api/ws/")
			},
			ErrorMessage: "Request timeout",
		}))
	}

	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	if cfg.EnableCORS {
		origins := strings.Split(cfg.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}

// countRequests records method and final status of every request
func countRequests(rec HTTPRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			status := c.Response().Status
			if err != nil {
				status = toAPIError(err).Status
			}
			rec.RecordHTTPRequest(c.Request().Method, strconv.Itoa(status))
			return err
		}
	}
}
