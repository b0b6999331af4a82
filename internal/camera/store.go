package camera

// MemoryStore はStoreのインメモリ実装
// プロセスの生存期間だけレコードを保持し、再起動で空に戻る。
// 業務ルールやロックは持たない（排他制御はRegistry側の責務）。
type MemoryStore struct {
	cameras map[string]*Camera
	order   []string // 登録順を保持するためのIDリスト
}

// NewMemoryStore は新しいMemoryStoreを作成する
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cameras: make(map[string]*Camera),
	}
}

// Put はカメラをIDで挿入または上書きする
// 既存IDへの上書きは登録順の位置を変えない
func (s *MemoryStore) Put(cam *Camera) {
	if _, exists := s.cameras[cam.ID]; !exists {
		s.order = append(s.order, cam.ID)
	}
	s.cameras[cam.ID] = cam
}

// Get は指定されたIDのカメラを取得する
func (s *MemoryStore) Get(id string) (*Camera, bool) {
	cam, exists := s.cameras[id]
	return cam, exists
}

// Delete はカメラを削除し、存在していたかどうかを返す
func (s *MemoryStore) Delete(id string) bool {
	if _, exists := s.cameras[id]; !exists {
		return false
	}
	delete(s.cameras, id)
	for i, storedID := range s.order {
		if storedID == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// ListAll は全カメラを登録順に返す
// Goのmapは反復順序が不定なため、orderリストで順序を固定している
func (s *MemoryStore) ListAll() []*Camera {
	cameras := make([]*Camera, 0, len(s.cameras))
	for _, id := range s.order {
		cameras = append(cameras, s.cameras[id])
	}
	return cameras
}
