package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"daicho/internal/api"
	"daicho/internal/camera"
)

// handleHealth はヘルスチェックエンドポイント
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	})
}

// handleStatus はサービス状態エンドポイント
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, api.StatusResponse{
		Status:  "running",
		Version: Version,
		Server: api.ServerInfo{
			Host: s.config.Server.Host,
			Port: s.config.Server.Port,
		},
		Cameras: s.registry.Count(),
		FeedDefaults: api.FeedDefaultsInfo{
			RTSPHQPort: s.config.Defaults.RTSPHQPort,
			RTSPLQPort: s.config.Defaults.RTSPLQPort,
			HTTPPort:   s.config.Defaults.HTTPPort,
		},
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
		Timestamp:     time.Now(),
	})
}

// handleOpenAPI は埋め込まれたAPI定義をそのまま配信する
func (s *Server) handleOpenAPI(c *gin.Context) {
	c.Data(http.StatusOK, "application/yaml; charset=utf-8", api.Document())
}

// handleRoot はルートパスのハンドラ
func (s *Server) handleRoot(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", getIndexHTML())
}

// handleAddCamera はカメラを登録する
func (s *Server) handleAddCamera(c *gin.Context) {
	var data api.NewCameraData
	if !s.bindJSON(c, &data) {
		return
	}

	input, err := data.ToInput()
	if err != nil {
		s.writeError(c, err)
		return
	}

	cam, err := s.registry.AddCamera(c.Request.Context(), input)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info("カメラを登録しました",
		slog.String("camera_id", cam.ID),
		slog.String("name", cam.Name),
	)
	c.JSON(http.StatusOK, api.CameraToDetails(cam))
}

// handleGetCamera はカメラを取得する
func (s *Server) handleGetCamera(c *gin.Context) {
	cam, err := s.registry.GetCamera(c.Param("camera_id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.CameraToDetails(cam))
}

// handleUpdateCamera はカメラを部分更新する
func (s *Server) handleUpdateCamera(c *gin.Context) {
	var data api.CameraUpdate
	if !s.bindJSON(c, &data) {
		return
	}

	update, err := data.ToUpdate()
	if err != nil {
		s.writeError(c, err)
		return
	}

	cam, err := s.registry.UpdateCamera(c.Request.Context(), c.Param("camera_id"), update)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info("カメラを更新しました", slog.String("camera_id", cam.ID))
	c.JSON(http.StatusOK, api.CameraToDetails(cam))
}

// handleRemoveCamera はカメラを削除する
func (s *Server) handleRemoveCamera(c *gin.Context) {
	cameraID := c.Param("camera_id")

	if err := s.registry.RemoveCamera(c.Request.Context(), cameraID); err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info("カメラを削除しました", slog.String("camera_id", cameraID))
	c.JSON(http.StatusOK, api.MessageResponse{Message: "Camera removed successfully"})
}

// handleListCameras はカメラ一覧を取得する
func (s *Server) handleListCameras(c *gin.Context) {
	filter := camera.CameraFilter{
		Model:  c.Query("model"),
		IPFrom: c.Query("ip_from"),
		IPTo:   c.Query("ip_to"),
	}

	if raw, ok := c.GetQuery("online"); ok {
		online, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeValidationError(c, "Invalid value for online.")
			return
		}
		filter.Online = &online
	}

	page, pageSize, ok := s.pagination(c)
	if !ok {
		return
	}

	cams, err := s.registry.ListCameras(filter, page, pageSize)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.CamerasToDetails(cams))
}

// handleAddFeed はカメラにフィードを追加する
func (s *Server) handleAddFeed(c *gin.Context) {
	var data api.VideoFeedSetup
	if !s.bindJSON(c, &data) {
		return
	}

	feed, err := s.registry.AddFeed(c.Request.Context(), c.Param("camera_id"), data.ToInput())
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info("フィードを追加しました",
		slog.String("camera_id", c.Param("camera_id")),
		slog.String("feed_id", feed.ID),
	)
	c.JSON(http.StatusOK, api.FeedMessageResponse{
		Message: "Feed added",
		Feed:    api.FeedToInfo(*feed),
	})
}

// handleListFeeds はカメラのフィード一覧を取得する
func (s *Server) handleListFeeds(c *gin.Context) {
	filter := camera.FeedFilter{
		Protocol:  c.Query("protocol"),
		PathQuery: c.Query("q"),
	}

	if raw, ok := c.GetQuery("port"); ok {
		port, err := strconv.Atoi(raw)
		if err != nil {
			s.writeValidationError(c, "Invalid value for port.")
			return
		}
		filter.Port = &port
	}

	page, pageSize, ok := s.pagination(c)
	if !ok {
		return
	}

	feeds, err := s.registry.ListFeeds(c.Param("camera_id"), filter, page, pageSize)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.FeedsToInfo(feeds))
}

// handleUpdateFeed はフィードを部分更新する
func (s *Server) handleUpdateFeed(c *gin.Context) {
	var data api.FeedUpdate
	if !s.bindJSON(c, &data) {
		return
	}

	feed, err := s.registry.UpdateFeed(
		c.Request.Context(),
		c.Param("camera_id"),
		c.Param("feed_id"),
		data.ToUpdate(),
	)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info("フィードを更新しました", slog.String("feed_id", feed.ID))
	c.JSON(http.StatusOK, api.FeedMessageResponse{
		Message: "Feed updated",
		Feed:    api.FeedToInfo(*feed),
	})
}

// handleRemoveFeed はフィードを削除する
func (s *Server) handleRemoveFeed(c *gin.Context) {
	cameraID := c.Param("camera_id")
	feedID := c.Param("feed_id")

	if err := s.registry.RemoveFeed(c.Request.Context(), cameraID, feedID); err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info("フィードを削除しました",
		slog.String("camera_id", cameraID),
		slog.String("feed_id", feedID),
	)
	c.JSON(http.StatusOK, api.MessageResponse{Message: "Feed removed successfully"})
}

// handleHeartbeat はカメラの生存信号を記録する
func (s *Server) handleHeartbeat(c *gin.Context) {
	cameraID := c.Param("camera_id")

	if err := s.registry.Heartbeat(c.Request.Context(), cameraID); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Heartbeat updated"})
}

// handleCameraStatus はカメラのオンライン状態を返す
func (s *Server) handleCameraStatus(c *gin.Context) {
	cameraID := c.Param("camera_id")

	online, err := s.registry.IsOnline(cameraID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	cam, err := s.registry.GetCamera(cameraID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.CameraState{
		CameraID:         cam.ID,
		IsOnline:         online,
		LastKnownCheckin: cam.LastCheckin,
	})
}

// ヘルパー関数

// bindJSON はリクエストボディを束縛し、違反を400応答に変換する
func (s *Server) bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  api.ErrorKindValidation,
			Detail: err.Error(),
			Path:   c.Request.URL.String(),
		})
		return false
	}
	return true
}

// pagination はページングのクエリパラメータを解釈する
func (s *Server) pagination(c *gin.Context) (page, pageSize int, ok bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		s.writeValidationError(c, "Invalid value for page.")
		return 0, 0, false
	}

	pageSize, err = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil {
		s.writeValidationError(c, "Invalid value for page_size.")
		return 0, 0, false
	}

	return page, pageSize, true
}

// writeValidationError は入力違反を400応答に変換する
func (s *Server) writeValidationError(c *gin.Context, detail string) {
	c.JSON(http.StatusBadRequest, api.ErrorResponse{
		Error:  api.ErrorKindValidation,
		Detail: detail,
		Path:   c.Request.URL.String(),
	})
}

// writeError はドメインのエラー種別をHTTP応答に変換する
func (s *Server) writeError(c *gin.Context, err error) {
	resp := api.ErrorResponse{
		Detail: err.Error(),
		Path:   c.Request.URL.String(),
	}

	switch {
	case camera.IsNotFound(err):
		resp.Error = api.ErrorKindNotFound
		c.JSON(http.StatusNotFound, resp)
	case camera.IsConflict(err):
		resp.Error = api.ErrorKindConflict
		c.JSON(http.StatusConflict, resp)
	case camera.IsValidation(err):
		resp.Error = api.ErrorKindValidation
		c.JSON(http.StatusBadRequest, resp)
	default:
		// 予期しないエラーの詳細はクライアントに出さない
		s.logger.Error("予期しないエラーが発生しました",
			slog.String("path", c.Request.URL.Path),
			slog.Any("error", err),
		)
		resp.Error = api.ErrorKindInternal
		resp.Detail = "Something went wrong on the server."
		c.JSON(http.StatusInternalServerError, resp)
	}
}
