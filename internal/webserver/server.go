package webserver

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/talkincode/toughcatalog/config"
)

const (
	apiPrefix = "/api/v1"

	// AppContextKey echo context key holding the application context
	AppContextKey = "appctx"
)

var server *AdminServer

// AdminServer the admin http api
type AdminServer struct {
	root   *echo.Echo
	api    *echo.Group
	config *config.AppConfig
}

// Init creates the global admin server. appCtx is attached to every request
// under AppContextKey; routes are registered afterwards with ApiGET and friends.
func Init(cfg *config.AppConfig, appCtx interface{}) *AdminServer {
	server = NewAdminServer(cfg, appCtx)
	return server
}

func NewAdminServer(cfg *config.AppConfig, appCtx interface{}) *AdminServer {
	s := &AdminServer{config: cfg}
	s.root = echo.New()
	s.root.HideBanner = true
	s.root.HidePort = true
	s.root.Debug = cfg.System.Debug
	s.root.JSONSerializer = JSONSerializer{}
	s.root.Validator = NewPayloadValidator()
	s.root.HTTPErrorHandler = httpErrorHandler

	s.root.Use(middleware.Recover())
	s.root.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	s.root.Use(middleware.BodyLimit("2M"))
	s.root.Use(accessLog)
	if cfg.Web.Timeout > 0 {
		s.root.Server.ReadTimeout = time.Duration(cfg.Web.Timeout) * time.Second
		s.root.Server.WriteTimeout = time.Duration(cfg.Web.Timeout) * time.Second
	}

	s.api = s.root.Group(apiPrefix, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(AppContextKey, appCtx)
			return next(c)
		}
	})
	return s
}

// Handler exposes the router, used by tests through httptest
func (s *AdminServer) Handler() http.Handler {
	return s.root
}

// Start serves until the listener fails or Shutdown is called
func (s *AdminServer) Start() error {
	addr := s.config.WebAddr()
	zap.L().Info("admin api server starting",
		zap.String("namespace", "webserver"),
		zap.String("addr", addr))
	err := s.root.Start(addr)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *AdminServer) Shutdown(ctx context.Context) error {
	return s.root.Shutdown(ctx)
}

func ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.GET(path, h, m...)
}

func ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.POST(path, h, m...)
}

func ApiPUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.PUT(path, h, m...)
}

func ApiPATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.PATCH(path, h, m...)
}

func ApiDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.DELETE(path, h, m...)
}

// httpErrorHandler renders framework errors (unknown route, bad method,
// body too large) in the same envelope the handlers use
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	message := http.StatusText(status)
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(status)
		}
	}
	if status >= http.StatusInternalServerError {
		zap.L().Error("unhandled api error",
			zap.String("namespace", "webserver"),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err))
	}
	code := "HTTP_ERROR"
	switch status {
	case http.StatusNotFound:
		code = "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		code = "METHOD_NOT_ALLOWED"
	case http.StatusBadRequest:
		code = "INVALID_REQUEST"
	case http.StatusRequestEntityTooLarge:
		code = "PAYLOAD_TOO_LARGE"
	}
	_ = c.JSON(status, map[string]interface{}{
		"code":    code,
		"message": message,
	})
}
