package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"daicho/internal/api"
	"daicho/internal/camera"
)

// Config はクライアントの接続設定を表す
type Config struct {
	// BaseURL は接続先サーバーのURL（例: http://localhost:8080）
	BaseURL string
	// Timeout は1リクエストあたりの制限時間。0の場合は無制限
	Timeout time.Duration
}

// Client はカメラ台帳サーバーのHTTPクライアントを表す
type Client struct {
	http *resty.Client
}

// New は指定された設定でクライアントを作成する
func New(cfg Config) *Client {
	r := resty.New()
	r.SetBaseURL(cfg.BaseURL)
	r.SetHeader("Content-Type", "application/json")
	r.SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		r.SetTimeout(cfg.Timeout)
	}

	return &Client{http: r}
}

// decodeError はエラー応答をRegistryと同じ業務エラー型に変換する
func decodeError(resp *resty.Response) error {
	var body api.ErrorResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil || body.Detail == "" {
		return fmt.Errorf("サーバーエラー (HTTP %d): %s", resp.StatusCode(), resp.String())
	}

	switch body.Error {
	case api.ErrorKindNotFound:
		return &camera.NotFoundError{Message: body.Detail}
	case api.ErrorKindConflict:
		return &camera.ConflictError{Message: body.Detail}
	case api.ErrorKindValidation:
		return &camera.ValidationError{Message: body.Detail}
	default:
		return fmt.Errorf("サーバーエラー (HTTP %d): %s", resp.StatusCode(), body.Detail)
	}
}

// CameraListOptions はカメラ一覧の絞り込み条件を表す
// ゼロ値のフィールドは送信されず、サーバー側の既定値が使われる
type CameraListOptions struct {
	Model    string
	IPFrom   string
	IPTo     string
	Online   *bool
	Page     int
	PageSize int
}

func (o CameraListOptions) apply(req *resty.Request) {
	if o.Model != "" {
		req.SetQueryParam("model", o.Model)
	}
	if o.IPFrom != "" {
		req.SetQueryParam("ip_from", o.IPFrom)
	}
	if o.IPTo != "" {
		req.SetQueryParam("ip_to", o.IPTo)
	}
	if o.Online != nil {
		req.SetQueryParam("online", strconv.FormatBool(*o.Online))
	}
	if o.Page > 0 {
		req.SetQueryParam("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		req.SetQueryParam("page_size", strconv.Itoa(o.PageSize))
	}
}

// FeedListOptions はフィード一覧の絞り込み条件を表す
type FeedListOptions struct {
	Protocol  string
	Port      int
	PathQuery string
	Page      int
	PageSize  int
}

func (o FeedListOptions) apply(req *resty.Request) {
	if o.Protocol != "" {
		req.SetQueryParam("protocol", o.Protocol)
	}
	if o.Port > 0 {
		req.SetQueryParam("port", strconv.Itoa(o.Port))
	}
	if o.PathQuery != "" {
		req.SetQueryParam("q", o.PathQuery)
	}
	if o.Page > 0 {
		req.SetQueryParam("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		req.SetQueryParam("page_size", strconv.Itoa(o.PageSize))
	}
}

// AddCamera はカメラを登録する
func (c *Client) AddCamera(ctx context.Context, data api.NewCameraData) (*api.CameraDetails, error) {
	var out api.CameraDetails
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(data).
		SetResult(&out).
		Post("/cameras")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}
	return &out, nil
}

// ListCameras は条件に一致するカメラの一覧を取得する
func (c *Client) ListCameras(ctx context.Context, opts CameraListOptions) ([]api.CameraDetails, error) {
	var out []api.CameraDetails
	req := c.http.R().
		SetContext(ctx).
		SetResult(&out)
	opts.apply(req)

	resp, err := req.Get("/cameras")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}
	return out, nil
}

// GetCamera はカメラの詳細を取得する
func (c *Client) GetCamera(ctx context.Context, cameraID string) (*api.CameraDetails, error) {
	var out api.CameraDetails
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("camera_id", cameraID).
		Get("/cameras/{camera_id}")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}
	return &out, nil
}

// UpdateCamera はカメラの属性を部分更新する
func (c *Client) UpdateCamera(ctx context.Context, cameraID string, update api.CameraUpdate) (*api.CameraDetails, error) {
	var out api.CameraDetails
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(update).
		SetResult(&out).
		SetPathParam("camera_id", cameraID).
		Patch("/cameras/{camera_id}")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}
	return &out, nil
}

// RemoveCamera はカメラを台帳から削除する
func (c *Client) RemoveCamera(ctx context.Context, cameraID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("camera_id", cameraID).
		Delete("/cameras/{camera_id}")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return decodeError(resp)
	}
	return nil
}

// AddFeed はカメラにフィードを追加する
func (c *Client) AddFeed(ctx context.Context, cameraID string, setup api.VideoFeedSetup) (*api.VideoFeedInfo, error) {
	var out api.FeedMessageResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(setup).
		SetResult(&out).
		SetPathParam("camera_id", cameraID).
		Post("/cameras/{camera_id}/feeds")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}
	return &out.Feed, nil
}

// ListFeeds は条件に一致するフィードの一覧を取得する
func (c *Client) ListFeeds(ctx context.Context, cameraID string, opts FeedListOptions) ([]api.VideoFeedInfo, error) {
	var out []api.VideoFeedInfo
	req := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("camera_id", cameraID)
	opts.apply(req)

	resp, err := req.Get("/cameras/{camera_id}/feeds")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}
	return out, nil
}

// UpdateFeed はフィードの属性を部分更新する
func (c *Client) UpdateFeed(ctx context.Context, cameraID, feedID string, update api.FeedUpdate) (*api.VideoFeedInfo, error) {
	var out api.FeedMessageResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(update).
		SetResult(&out).
		SetPathParams(map[string]string{"camera_id": cameraID, "feed_id": feedID}).
		Patch("/cameras/{camera_id}/feeds/{feed_id}")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}
	return &out.Feed, nil
}

// RemoveFeed はカメラからフィードを削除する
func (c *Client) RemoveFeed(ctx context.Context, cameraID, feedID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"camera_id": cameraID, "feed_id": feedID}).
		Delete("/cameras/{camera_id}/feeds/{feed_id}")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return decodeError(resp)
	}
	return nil
}

// Heartbeat はカメラの生存確認時刻を現在時刻に更新する
func (c *Client) Heartbeat(ctx context.Context, cameraID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("camera_id", cameraID).
		Post("/cameras/{camera_id}/heartbeat")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return decodeError(resp)
	}
	return nil
}

// CameraStatus はカメラのオンライン状態を取得する
func (c *Client) CameraStatus(ctx context.Context, cameraID string) (*api.CameraState, error) {
	var out api.CameraState
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("camera_id", cameraID).
		Get("/cameras/{camera_id}/status")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}
	return &out, nil
}

// Health はサーバーの死活状態を取得する
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var out api.HealthResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/health")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}
	return &out, nil
}

// ServiceStatus はサーバーの稼働情報を取得する
func (c *Client) ServiceStatus(ctx context.Context) (*api.StatusResponse, error) {
	var out api.StatusResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/api/status")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}
	return &out, nil
}
