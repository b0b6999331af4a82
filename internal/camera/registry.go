package camera

import (
	"context"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultRegistry はRegistryのデフォルト実装
// 一意性の検査は全レコードを横断する走査を伴うため、コレクション全体を
// 単一のRWMutexで保護する。書き込みは排他、読み取りは相互に並行できる。
type DefaultRegistry struct {
	store            Store
	heartbeatTimeout time.Duration
	mu               sync.RWMutex

	// 時刻の取得関数。テストで差し替えるために注入可能にしている
	now func() time.Time
}

// NewDefaultRegistry は新しいDefaultRegistryを作成する
// heartbeatTimeout は最後のハートビートからオフラインとみなすまでの時間
func NewDefaultRegistry(store Store, heartbeatTimeout time.Duration) Registry {
	return &DefaultRegistry{
		store:            store,
		heartbeatTimeout: heartbeatTimeout,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// AddCamera はカメラを登録する
func (r *DefaultRegistry) AddCamera(ctx context.Context, input CameraInput) (*Camera, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cameras := r.store.ListAll()

	// ルール1: IPアドレスの重複を禁止
	for _, cam := range cameras {
		if cam.Network == input.Network {
			return nil, conflictf("A camera with this IP address already exists.")
		}
	}

	// ルール2: (名前, 機種)の組の重複を禁止
	for _, cam := range cameras {
		if cam.Name == input.Name && cam.Model == input.Model {
			return nil, conflictf("A camera with same name and model already exists.")
		}
	}

	now := r.now()

	// 作成時のフィード群にはIDを採番するだけで、相互の重複検査は行わない
	// （AddFeed側の検査との既知の非対称）
	feeds := make([]Feed, 0, len(input.Feeds))
	for _, f := range input.Feeds {
		feeds = append(feeds, Feed{
			ID:       uuid.New().String(),
			Protocol: f.Protocol,
			Port:     f.Port,
			Path:     f.Path,
		})
	}

	cam := &Camera{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Model:     input.Model,
		Network:   input.Network,
		Image:     input.Image,
		Feeds:     feeds,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.store.Put(cam)

	return cam.Clone(), nil
}

// GetCamera は指定されたIDのカメラを取得する
func (r *DefaultRegistry) GetCamera(id string) (*Camera, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cam, exists := r.store.Get(id)
	if !exists {
		return nil, notFoundf("Camera not found.")
	}

	// コピーを返す
	return cam.Clone(), nil
}

// UpdateCamera はカメラを部分更新する
// 実際に値が変わった場合のみ更新時刻を進める。一意性の再検査は行わない
func (r *DefaultRegistry) UpdateCamera(ctx context.Context, id string, update CameraUpdate) (*Camera, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cam, exists := r.store.Get(id)
	if !exists {
		return nil, notFoundf("Camera not found.")
	}

	changed := false

	if update.Name != nil && *update.Name != cam.Name {
		cam.Name = *update.Name
		changed = true
	}
	if update.Model != nil && *update.Model != cam.Model {
		cam.Model = *update.Model
		changed = true
	}
	if update.Network != nil && *update.Network != cam.Network {
		cam.Network = *update.Network
		changed = true
	}
	if update.Image != nil && *update.Image != cam.Image {
		cam.Image = *update.Image
		changed = true
	}

	if changed {
		cam.UpdatedAt = r.now()
		r.store.Put(cam)
	}

	return cam.Clone(), nil
}

// RemoveCamera はカメラを削除する
// フィードはカメラレコードの内部に存在するため、削除は自動的に連鎖する
func (r *DefaultRegistry) RemoveCamera(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.store.Delete(id) {
		return notFoundf("Camera not found.")
	}
	return nil
}

// ListCameras は絞り込みとページングを適用したカメラ一覧を返す
// フィルタは model → IPレンジ → online の固定順で適用される
func (r *DefaultRegistry) ListCameras(filter CameraFilter, page, pageSize int) ([]Camera, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cameras := r.store.ListAll()

	// フィルタ1: 機種名の部分一致（大文字小文字を区別しない）
	if filter.Model != "" {
		model := strings.ToLower(filter.Model)
		var matched []*Camera
		for _, cam := range cameras {
			if strings.Contains(strings.ToLower(cam.Model), model) {
				matched = append(matched, cam)
			}
		}
		cameras = matched
	}

	// フィルタ2: IPレンジ（両端を含む、どちらか一方だけでも可）
	// 解析に失敗したリテラルは業務エラー（Conflict）として呼び出し側に返す
	if filter.IPFrom != "" || filter.IPTo != "" {
		var from, to netip.Addr
		var err error
		if filter.IPFrom != "" {
			from, err = netip.ParseAddr(filter.IPFrom)
			if err != nil {
				return nil, conflictf("Invalid IP format.")
			}
		}
		if filter.IPTo != "" {
			to, err = netip.ParseAddr(filter.IPTo)
			if err != nil {
				return nil, conflictf("Invalid IP format.")
			}
		}

		var matched []*Camera
		for _, cam := range cameras {
			if from.IsValid() && cam.Network.Compare(from) < 0 {
				continue
			}
			if to.IsValid() && cam.Network.Compare(to) > 0 {
				continue
			}
			matched = append(matched, cam)
		}
		cameras = matched
	}

	// フィルタ3: オンライン状態（カメラごとに毎回算出する）
	if filter.Online != nil {
		var matched []*Camera
		for _, cam := range cameras {
			if r.isOnlineLocked(cam) == *filter.Online {
				matched = append(matched, cam)
			}
		}
		cameras = matched
	}

	cameras = paginate(cameras, page, pageSize)

	// コピーを返す
	result := make([]Camera, 0, len(cameras))
	for _, cam := range cameras {
		result = append(result, *cam.Clone())
	}
	return result, nil
}

// AddFeed はカメラにフィードを追加する
func (r *DefaultRegistry) AddFeed(ctx context.Context, cameraID string, input FeedInput) (*Feed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cam, exists := r.store.Get(cameraID)
	if !exists {
		return nil, notFoundf("Camera not found.")
	}

	// ルール1: 同一カメラ内の(プロトコル, ポート)の組の重複を禁止
	for _, f := range cam.Feeds {
		if f.Protocol == input.Protocol && f.Port == input.Port {
			return nil, conflictf("A feed with same protocol and port already exists for this camera.")
		}
	}

	// ルール2: ポート番号は全カメラ横断で一意（プロトコルは無関係）
	// 走査対象には対象カメラ自身も含まれる
	for _, other := range r.store.ListAll() {
		for _, f := range other.Feeds {
			if f.Port == input.Port {
				return nil, conflictf("Feed port %d already used by another camera.", input.Port)
			}
		}
	}

	feed := Feed{
		ID:       uuid.New().String(),
		Protocol: input.Protocol,
		Port:     input.Port,
		Path:     input.Path,
	}
	cam.Feeds = append(cam.Feeds, feed)
	cam.UpdatedAt = r.now()
	r.store.Put(cam)

	result := feed
	return &result, nil
}

// UpdateFeed はフィードを部分更新する
// 更新に成功すればカメラの更新時刻を無条件に進める。一意性の再検査は行わない
func (r *DefaultRegistry) UpdateFeed(ctx context.Context, cameraID, feedID string, update FeedUpdate) (*Feed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cam, exists := r.store.Get(cameraID)
	if !exists {
		return nil, notFoundf("Camera or Feed not found.")
	}

	feed, found := cam.FindFeed(feedID)
	if !found {
		return nil, notFoundf("Camera or Feed not found.")
	}

	if update.Protocol != nil {
		feed.Protocol = *update.Protocol
	}
	if update.Port != nil {
		feed.Port = *update.Port
	}
	if update.Path != nil {
		feed.Path = *update.Path
	}

	cam.UpdatedAt = r.now()
	r.store.Put(cam)

	result := *feed
	return &result, nil
}

// RemoveFeed はフィードを削除する
func (r *DefaultRegistry) RemoveFeed(ctx context.Context, cameraID, feedID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cam, exists := r.store.Get(cameraID)
	if !exists {
		return notFoundf("Camera or Feed not found.")
	}

	for i, f := range cam.Feeds {
		if f.ID == feedID {
			cam.Feeds = append(cam.Feeds[:i], cam.Feeds[i+1:]...)
			cam.UpdatedAt = r.now()
			r.store.Put(cam)
			return nil
		}
	}

	return notFoundf("Camera or Feed not found.")
}

// ListFeeds は絞り込みとページングを適用したフィード一覧を返す
// 条件はすべてANDで結合される
func (r *DefaultRegistry) ListFeeds(cameraID string, filter FeedFilter, page, pageSize int) ([]Feed, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cam, exists := r.store.Get(cameraID)
	if !exists {
		return nil, notFoundf("Camera not found.")
	}

	feeds := cam.Feeds

	// プロトコルの完全一致（大文字小文字を区別しない）
	if filter.Protocol != "" {
		var matched []Feed
		for _, f := range feeds {
			if strings.EqualFold(string(f.Protocol), filter.Protocol) {
				matched = append(matched, f)
			}
		}
		feeds = matched
	}

	// ポート番号の完全一致
	if filter.Port != nil {
		var matched []Feed
		for _, f := range feeds {
			if f.Port == *filter.Port {
				matched = append(matched, f)
			}
		}
		feeds = matched
	}

	// 配信パスの部分一致（大文字小文字を区別しない）
	if filter.PathQuery != "" {
		q := strings.ToLower(filter.PathQuery)
		var matched []Feed
		for _, f := range feeds {
			if strings.Contains(strings.ToLower(f.Path), q) {
				matched = append(matched, f)
			}
		}
		feeds = matched
	}

	feeds = paginate(feeds, page, pageSize)

	// コピーを返す（Feedは参照を持たないため値コピーで十分）
	result := make([]Feed, 0, len(feeds))
	result = append(result, feeds...)
	return result, nil
}

// Heartbeat はカメラの生存信号を記録する
func (r *DefaultRegistry) Heartbeat(ctx context.Context, cameraID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cam, exists := r.store.Get(cameraID)
	if !exists {
		return notFoundf("Camera not found.")
	}

	now := r.now()
	cam.LastCheckin = &now
	cam.UpdatedAt = now
	r.store.Put(cam)

	return nil
}

// IsOnline はカメラのオンライン状態を算出して返す
func (r *DefaultRegistry) IsOnline(cameraID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cam, exists := r.store.Get(cameraID)
	if !exists {
		return false, notFoundf("Camera not found.")
	}

	return r.isOnlineLocked(cam), nil
}

// Count は登録されているカメラの台数を返す
func (r *DefaultRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.store.ListAll())
}

// isOnlineLocked はカメラのオンライン状態を算出する（ロック済み前提）
// 呼び出し時点の実時刻だけで決まる純粋な判定で、バックグラウンドの
// 失効処理は存在しない。タイムアウトを厳密に超えた場合のみオフライン
func (r *DefaultRegistry) isOnlineLocked(cam *Camera) bool {
	if cam.LastCheckin == nil {
		return false
	}
	return r.now().Sub(*cam.LastCheckin) <= r.heartbeatTimeout
}

// paginate は1始まりのページ番号でスライスを切り出す
// 範囲外のページや正でないページサイズはエラーにせず空を返す
func paginate[T any](items []T, page, pageSize int) []T {
	start := (page - 1) * pageSize
	if pageSize <= 0 || start < 0 || start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
