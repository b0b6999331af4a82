package camera

import (
	"context"
	"net/netip"
	"time"
)

// Protocol はフィードの配信プロトコルを表す
type Protocol string

const (
	ProtocolRTSP Protocol = "rtsp" // RTSPストリーム
	ProtocolHTTP Protocol = "http" // HTTPストリーム
)

// IsValid はプロトコルが既知の値かどうかを返す
func (p Protocol) IsValid() bool {
	switch p {
	case ProtocolRTSP, ProtocolHTTP:
		return true
	default:
		return false
	}
}

// ImageSettings はカメラの画質設定を表す
// 各値は 0〜100 の範囲で、境界での検証はtransport層が行う
type ImageSettings struct {
	Brightness int // 明るさ
	Contrast   int // コントラスト
	Saturation int // 彩度
}

// Feed はカメラが配信する映像フィードの設定を表す
type Feed struct {
	ID       string   // フィードの一意識別子
	Protocol Protocol // 配信プロトコル
	Port     int      // ポート番号 (1〜65535)
	Path     string   // 配信パス（デフォルト: "/"）
}

// Camera は登録されたネットワークカメラを表す
type Camera struct {
	ID          string        // カメラの一意識別子
	Name        string        // カメラの表示名
	Model       string        // カメラの機種名
	Network     netip.Addr    // IPアドレス（v4/v6）
	Image       ImageSettings // 画質設定
	Feeds       []Feed        // 所有するフィード（追加順を保持）
	CreatedAt   time.Time     // 登録時刻
	UpdatedAt   time.Time     // 最終更新時刻
	LastCheckin *time.Time    // 最後のハートビート時刻（未受信ならnil）
}

// Clone はカメラの深いコピーを返す
// 呼び出し側が内部状態を書き換えられないようにするために使う
func (c *Camera) Clone() *Camera {
	clone := *c
	clone.Feeds = make([]Feed, len(c.Feeds))
	copy(clone.Feeds, c.Feeds)
	if c.LastCheckin != nil {
		t := *c.LastCheckin
		clone.LastCheckin = &t
	}
	return &clone
}

// FindFeed は指定されたIDのフィードを検索する
func (c *Camera) FindFeed(feedID string) (*Feed, bool) {
	for i := range c.Feeds {
		if c.Feeds[i].ID == feedID {
			return &c.Feeds[i], true
		}
	}
	return nil, false
}

// FeedInput はフィード作成時の入力を表す
type FeedInput struct {
	Protocol Protocol // 配信プロトコル
	Port     int      // ポート番号
	Path     string   // 配信パス
}

// CameraInput はカメラ作成時の入力を表す
type CameraInput struct {
	Name    string        // カメラの表示名
	Model   string        // カメラの機種名
	Network netip.Addr    // IPアドレス
	Image   ImageSettings // 画質設定
	Feeds   []FeedInput   // 作成時に登録するフィード
}

// CameraUpdate はカメラの部分更新を表す
// nilのフィールドは変更しない
type CameraUpdate struct {
	Name    *string        // 表示名
	Model   *string        // 機種名
	Network *netip.Addr    // IPアドレス
	Image   *ImageSettings // 画質設定（構造体ごと置き換え）
}

// FeedUpdate はフィードの部分更新を表す
// nilのフィールドは変更しない
type FeedUpdate struct {
	Protocol *Protocol // 配信プロトコル
	Port     *int      // ポート番号
	Path     *string   // 配信パス
}

// CameraFilter はカメラ一覧の絞り込み条件を表す
// フィルタは model → IPレンジ → online の固定順で適用される
type CameraFilter struct {
	Model  string // 機種名の部分一致（大文字小文字を区別しない、空なら無条件）
	IPFrom string // IPレンジの下限（両端を含む、空なら下限なし）
	IPTo   string // IPレンジの上限（両端を含む、空なら上限なし）
	Online *bool  // オンライン状態の一致（nilなら無条件）
}

// FeedFilter はフィード一覧の絞り込み条件を表す
// 条件はすべてANDで結合される
type FeedFilter struct {
	Protocol  string // プロトコルの完全一致（大文字小文字を区別しない、空なら無条件）
	Port      *int   // ポート番号の完全一致（nilなら無条件）
	PathQuery string // 配信パスの部分一致（大文字小文字を区別しない、空なら無条件）
}

// Store はカメラレコードの生のキー値永続化を担うインターフェース
// 業務ルールは一切持たず、キーの存在だけを扱う
type Store interface {
	// Put はカメラをIDで挿入または上書きする
	Put(cam *Camera)

	// Get は指定されたIDのカメラを取得する
	Get(id string) (*Camera, bool)

	// Delete はカメラを削除し、存在していたかどうかを返す
	Delete(id string) bool

	// ListAll は全カメラを登録順に返す
	ListAll() []*Camera
}

// Registry はカメラ台帳の業務ルールを担うインターフェース
// 一意性の検査・生存状態の算出・絞り込みとページングを行い、
// transport層が呼び出す唯一の窓口となる
type Registry interface {
	// AddCamera はカメラを登録する
	// IPアドレスまたは(名前, 機種)が重複する場合はConflictを返す
	AddCamera(ctx context.Context, input CameraInput) (*Camera, error)

	// GetCamera は指定されたIDのカメラを取得する
	GetCamera(id string) (*Camera, error)

	// UpdateCamera はカメラを部分更新する
	// 一意性の再検査は行わない
	UpdateCamera(ctx context.Context, id string, update CameraUpdate) (*Camera, error)

	// RemoveCamera はカメラを削除する（所有するフィードも同時に消える）
	RemoveCamera(ctx context.Context, id string) error

	// ListCameras は絞り込みとページングを適用したカメラ一覧を返す
	ListCameras(filter CameraFilter, page, pageSize int) ([]Camera, error)

	// AddFeed はカメラにフィードを追加する
	// 同一カメラ内の(プロトコル, ポート)重複、および全カメラ横断の
	// ポート重複はConflictを返す
	AddFeed(ctx context.Context, cameraID string, input FeedInput) (*Feed, error)

	// UpdateFeed はフィードを部分更新する
	// 一意性の再検査は行わない
	UpdateFeed(ctx context.Context, cameraID, feedID string, update FeedUpdate) (*Feed, error)

	// RemoveFeed はフィードを削除する
	RemoveFeed(ctx context.Context, cameraID, feedID string) error

	// ListFeeds は絞り込みとページングを適用したフィード一覧を返す
	ListFeeds(cameraID string, filter FeedFilter, page, pageSize int) ([]Feed, error)

	// Heartbeat はカメラの生存信号を記録する
	Heartbeat(ctx context.Context, cameraID string) error

	// IsOnline はカメラのオンライン状態を算出して返す
	// ハートビート未受信ならfalse、最後のハートビートからの経過時間が
	// タイムアウトを超えていればfalse
	IsOnline(cameraID string) (bool, error)

	// Count は登録されているカメラの台数を返す
	Count() int
}
