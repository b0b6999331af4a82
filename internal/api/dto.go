package api

import (
	"net/netip"
	"time"

	"daicho/internal/camera"
)

// 入力で省略されたフィールドに適用される既定値
const (
	defaultImageLevel = 50
	defaultFeedPath   = "/"
)

// エラー応答のerrorフィールドに入る種別
const (
	ErrorKindNotFound   = "Not Found"
	ErrorKindConflict   = "Conflict"
	ErrorKindValidation = "Validation Error"
	ErrorKindInternal   = "Internal Server Error"
)

// CameraNetworkInfo はカメラのネットワーク設定
type CameraNetworkInfo struct {
	IPAddress string `json:"ip_address" binding:"required,ip"`
}

// ImageQualityInput は画質設定の入力
// 省略されたフィールドは50として扱われる
type ImageQualityInput struct {
	Brightness *int `json:"brightness" binding:"omitempty,min=0,max=100"`
	Contrast   *int `json:"contrast" binding:"omitempty,min=0,max=100"`
	Saturation *int `json:"saturation" binding:"omitempty,min=0,max=100"`
}

// ImageQuality は画質設定の応答表現
type ImageQuality struct {
	Brightness int `json:"brightness"`
	Contrast   int `json:"contrast"`
	Saturation int `json:"saturation"`
}

// VideoFeedSetup は新しいフィードの入力
// feed_pathを省略すると "/" になる
type VideoFeedSetup struct {
	FeedProtocol string  `json:"feed_protocol" binding:"required,camera_protocol"`
	FeedPort     int     `json:"feed_port" binding:"required,min=1,max=65535"`
	FeedPath     *string `json:"feed_path" binding:"omitempty"`
}

// VideoFeedInfo はフィードの応答表現
type VideoFeedInfo struct {
	FeedID       string `json:"feed_id"`
	FeedProtocol string `json:"feed_protocol"`
	FeedPort     int    `json:"feed_port"`
	FeedPath     string `json:"feed_path"`
}

// NewCameraData はカメラ登録リクエスト
type NewCameraData struct {
	CameraName     string             `json:"camera_name" binding:"required"`
	CameraModel    string             `json:"camera_model" binding:"required"`
	NetworkSetup   CameraNetworkInfo  `json:"network_setup" binding:"required"`
	ImageSettings  *ImageQualityInput `json:"image_settings" binding:"omitempty"`
	AvailableFeeds []VideoFeedSetup   `json:"available_feeds" binding:"omitempty,dive"`
}

// CameraDetails はカメラの応答表現
type CameraDetails struct {
	CameraID         string            `json:"camera_id"`
	CameraName       string            `json:"camera_name"`
	CameraModel      string            `json:"camera_model"`
	NetworkSetup     CameraNetworkInfo `json:"network_setup"`
	ImageSettings    ImageQuality      `json:"image_settings"`
	AvailableFeeds   []VideoFeedInfo   `json:"available_feeds"`
	AddedOn          time.Time         `json:"added_on"`
	LastUpdatedOn    time.Time         `json:"last_updated_on"`
	LastKnownCheckin *time.Time        `json:"last_known_checkin"`
}

// CameraUpdate はカメラの部分更新リクエスト
// nilのフィールドは変更しない
type CameraUpdate struct {
	CameraName    *string            `json:"camera_name" binding:"omitempty"`
	CameraModel   *string            `json:"camera_model" binding:"omitempty"`
	NetworkSetup  *CameraNetworkInfo `json:"network_setup" binding:"omitempty"`
	ImageSettings *ImageQualityInput `json:"image_settings" binding:"omitempty"`
}

// FeedUpdate はフィードの部分更新リクエスト
type FeedUpdate struct {
	FeedProtocol *string `json:"feed_protocol" binding:"omitempty,camera_protocol"`
	FeedPort     *int    `json:"feed_port" binding:"omitempty,min=1,max=65535"`
	FeedPath     *string `json:"feed_path" binding:"omitempty"`
}

// CameraState はカメラの稼働状態の応答表現
type CameraState struct {
	CameraID         string     `json:"camera_id"`
	IsOnline         bool       `json:"is_online"`
	LastKnownCheckin *time.Time `json:"last_known_checkin"`
}

// MessageResponse は操作結果のメッセージのみの応答
type MessageResponse struct {
	Message string `json:"message"`
}

// FeedMessageResponse はメッセージと対象フィードを含む応答
type FeedMessageResponse struct {
	Message string        `json:"message"`
	Feed    VideoFeedInfo `json:"feed"`
}

// ErrorResponse はエラー応答の共通形式
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
	Path   string `json:"path"`
}

// HealthResponse はヘルスチェックの応答
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ServerInfo はサーバーのリッスン情報
type ServerInfo struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// FeedDefaultsInfo はフィード追加時の既定ポート
type FeedDefaultsInfo struct {
	RTSPHQPort int `json:"rtsp_hq_port"`
	RTSPLQPort int `json:"rtsp_lq_port"`
	HTTPPort   int `json:"http_port"`
}

// StatusResponse はサービス状態の応答
type StatusResponse struct {
	Status        string           `json:"status"`
	Version       string           `json:"version"`
	Server        ServerInfo       `json:"server"`
	Cameras       int              `json:"cameras"`
	FeedDefaults  FeedDefaultsInfo `json:"feed_defaults"`
	UptimeSeconds float64          `json:"uptime_seconds"`
	Timestamp     time.Time        `json:"timestamp"`
}

// toSettings は入力の画質設定をドメイン表現に変換する
// nilレシーバおよびnilのフィールドには既定値を適用する
func (in *ImageQualityInput) toSettings() camera.ImageSettings {
	settings := camera.ImageSettings{
		Brightness: defaultImageLevel,
		Contrast:   defaultImageLevel,
		Saturation: defaultImageLevel,
	}
	if in == nil {
		return settings
	}
	if in.Brightness != nil {
		settings.Brightness = *in.Brightness
	}
	if in.Contrast != nil {
		settings.Contrast = *in.Contrast
	}
	if in.Saturation != nil {
		settings.Saturation = *in.Saturation
	}
	return settings
}

// ToInput はフィード入力をドメイン表現に変換する
func (f VideoFeedSetup) ToInput() camera.FeedInput {
	path := defaultFeedPath
	if f.FeedPath != nil {
		path = *f.FeedPath
	}
	return camera.FeedInput{
		Protocol: camera.Protocol(f.FeedProtocol),
		Port:     f.FeedPort,
		Path:     path,
	}
}

// ToInput はカメラ登録リクエストをドメインの入力に変換する
func (d NewCameraData) ToInput() (camera.CameraInput, error) {
	addr, err := netip.ParseAddr(d.NetworkSetup.IPAddress)
	if err != nil {
		return camera.CameraInput{}, &camera.ValidationError{Message: "Invalid IP format."}
	}

	feeds := make([]camera.FeedInput, 0, len(d.AvailableFeeds))
	for _, f := range d.AvailableFeeds {
		feeds = append(feeds, f.ToInput())
	}

	return camera.CameraInput{
		Name:    d.CameraName,
		Model:   d.CameraModel,
		Network: addr,
		Image:   d.ImageSettings.toSettings(),
		Feeds:   feeds,
	}, nil
}

// ToUpdate はカメラ更新リクエストをドメインの更新指示に変換する
func (u CameraUpdate) ToUpdate() (camera.CameraUpdate, error) {
	update := camera.CameraUpdate{
		Name:  u.CameraName,
		Model: u.CameraModel,
	}

	if u.NetworkSetup != nil {
		addr, err := netip.ParseAddr(u.NetworkSetup.IPAddress)
		if err != nil {
			return camera.CameraUpdate{}, &camera.ValidationError{Message: "Invalid IP format."}
		}
		update.Network = &addr
	}

	// 画質設定は部分指定でも全体が置き換わる（省略分は既定値）
	if u.ImageSettings != nil {
		settings := u.ImageSettings.toSettings()
		update.Image = &settings
	}

	return update, nil
}

// ToUpdate はフィード更新リクエストをドメインの更新指示に変換する
func (u FeedUpdate) ToUpdate() camera.FeedUpdate {
	update := camera.FeedUpdate{
		Port: u.FeedPort,
		Path: u.FeedPath,
	}
	if u.FeedProtocol != nil {
		p := camera.Protocol(*u.FeedProtocol)
		update.Protocol = &p
	}
	return update
}

// FeedToInfo はドメインのフィードを応答表現に変換する
func FeedToInfo(f camera.Feed) VideoFeedInfo {
	return VideoFeedInfo{
		FeedID:       f.ID,
		FeedProtocol: string(f.Protocol),
		FeedPort:     f.Port,
		FeedPath:     f.Path,
	}
}

// FeedsToInfo はフィードのスライスを応答表現に変換する
func FeedsToInfo(feeds []camera.Feed) []VideoFeedInfo {
	infos := make([]VideoFeedInfo, 0, len(feeds))
	for _, f := range feeds {
		infos = append(infos, FeedToInfo(f))
	}
	return infos
}

// CameraToDetails はドメインのカメラを応答表現に変換する
func CameraToDetails(c *camera.Camera) CameraDetails {
	return CameraDetails{
		CameraID:    c.ID,
		CameraName:  c.Name,
		CameraModel: c.Model,
		NetworkSetup: CameraNetworkInfo{
			IPAddress: c.Network.String(),
		},
		ImageSettings: ImageQuality{
			Brightness: c.Image.Brightness,
			Contrast:   c.Image.Contrast,
			Saturation: c.Image.Saturation,
		},
		AvailableFeeds:   FeedsToInfo(c.Feeds),
		AddedOn:          c.CreatedAt,
		LastUpdatedOn:    c.UpdatedAt,
		LastKnownCheckin: c.LastCheckin,
	}
}

// CamerasToDetails はカメラのスライスを応答表現に変換する
func CamerasToDetails(cameras []camera.Camera) []CameraDetails {
	details := make([]CameraDetails, 0, len(cameras))
	for i := range cameras {
		details = append(details, CameraToDetails(&cameras[i]))
	}
	return details
}
