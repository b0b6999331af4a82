package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"daicho/internal/api"
	"daicho/internal/camera"
	"daicho/internal/config"
)

// Version はビルド時に -ldflags で上書きされる
var Version = "dev"

// Server はHTTPサーバーを管理する構造体
type Server struct {
	config     *config.Config
	registry   camera.Registry
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
	startedAt  time.Time
}

// New は新しいServerインスタンスを作成する
// 埋め込まれたOpenAPI定義が壊れている場合はここで失敗する
func New(cfg *config.Config, registry camera.Registry, logger *slog.Logger) (*Server, error) {
	// 定義と実装の乖離を起動時に検出する
	if _, err := api.LoadDocument(context.Background()); err != nil {
		return nil, err
	}

	// bindingタグ用のカスタム検証を登録する
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := api.RegisterValidations(v); err != nil {
			return nil, fmt.Errorf("カスタム検証の登録に失敗: %w", err)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		config:    cfg,
		registry:  registry,
		logger:    logger,
		engine:    engine,
		startedAt: time.Now(),
		httpServer: &http.Server{
			Addr:         cfg.ServerAddress(),
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	engine.Use(s.requestLogger(), s.recovery())
	s.setupRoutes()

	return s, nil
}

// setupRoutes はHTTPルートを設定する
func (s *Server) setupRoutes() {
	// 稼働状態エンドポイント
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/api/status", s.handleStatus)
	s.engine.GET("/openapi.yaml", s.handleOpenAPI)

	// ルートハンドラ（簡単な確認用）
	s.engine.GET("/", s.handleRoot)

	// カメラ管理エンドポイント
	cameras := s.engine.Group("/cameras")
	{
		cameras.POST("", s.handleAddCamera)
		cameras.GET("", s.handleListCameras)
		cameras.GET("/:camera_id", s.handleGetCamera)
		cameras.PATCH("/:camera_id", s.handleUpdateCamera)
		cameras.DELETE("/:camera_id", s.handleRemoveCamera)

		cameras.POST("/:camera_id/feeds", s.handleAddFeed)
		cameras.GET("/:camera_id/feeds", s.handleListFeeds)
		cameras.PATCH("/:camera_id/feeds/:feed_id", s.handleUpdateFeed)
		cameras.DELETE("/:camera_id/feeds/:feed_id", s.handleRemoveFeed)

		cameras.POST("/:camera_id/heartbeat", s.handleHeartbeat)
		cameras.GET("/:camera_id/status", s.handleCameraStatus)
	}
}

// Handler はルーティング済みのHTTPハンドラを返す
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start はサーバーを起動する
// コンテキストのキャンセルかSIGINT/SIGTERMでグレースフルに停止する
func (s *Server) Start(ctx context.Context) error {
	// シャットダウン用のチャンネル
	shutdownCh := make(chan error, 1)

	// サーバーを別ゴルーチンで起動
	go func() {
		s.logger.Info("HTTPサーバーを起動しています",
			slog.String("address", s.config.ServerAddress()),
			slog.String("version", Version),
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			shutdownCh <- fmt.Errorf("サーバーの起動に失敗: %w", err)
		}
	}()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// コンテキストかシグナルを待つ
	select {
	case <-ctx.Done():
		s.logger.Info("コンテキストがキャンセルされました")
	case sig := <-sigCh:
		s.logger.Info("シグナルを受信しました", slog.String("signal", sig.String()))
	case err := <-shutdownCh:
		return err
	}

	// グレースフルシャットダウン
	return s.Shutdown()
}

// Shutdown はサーバーをグレースフルにシャットダウンする
func (s *Server) Shutdown() error {
	s.logger.Info("サーバーをシャットダウンしています...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("サーバーのシャットダウンに失敗: %w", err)
	}

	s.logger.Info("サーバーが正常にシャットダウンされました")
	return nil
}
