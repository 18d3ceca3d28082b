package webserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// accessLog writes one structured line per request
func accessLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		req := c.Request()
		res := c.Response()
		level := zapcore.InfoLevel
		if res.Status >= 500 {
			level = zapcore.ErrorLevel
		} else if res.Status >= 400 {
			level = zapcore.WarnLevel
		}
		if ce := zap.L().Check(level, "api request"); ce != nil {
			ce.Write(
				zap.String("namespace", "webserver"),
				zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Int("status", res.Status),
				zap.Int64("bytes", res.Size),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
			)
		}
		return nil
	}
}
