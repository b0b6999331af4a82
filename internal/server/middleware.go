package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"daicho/internal/api"
)

// requestLogger はリクエストごとのアクセスログを出力するミドルウェア
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		s.logger.Info("リクエストを処理しました",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}

// recovery はハンドラのpanicを500応答に変換するミドルウェア
// スタックトレースはクライアントに出さない
func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panicから復帰しました",
					slog.Any("panic", r),
					slog.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{
					Error:  api.ErrorKindInternal,
					Detail: "Something went wrong on the server.",
					Path:   c.Request.URL.String(),
				})
			}
		}()

		c.Next()
	}
}
