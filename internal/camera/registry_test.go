package camera

import (
	"context"
	"fmt"
	"net/netip"
	"sync"
	"testing"
	"time"
)

// fakeClock はテストから時刻を進めるためのクロック
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newTestRegistry は固定クロック付きのRegistryを作成する
func newTestRegistry(timeout time.Duration) (*DefaultRegistry, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	reg := &DefaultRegistry{
		store:            NewMemoryStore(),
		heartbeatTimeout: timeout,
		now:              clock.Now,
	}
	return reg, clock
}

func testCameraInput(name, model, ip string) CameraInput {
	return CameraInput{
		Name:    name,
		Model:   model,
		Network: netip.MustParseAddr(ip),
		Image:   ImageSettings{Brightness: 50, Contrast: 50, Saturation: 50},
	}
}

func mustAddCamera(t *testing.T, reg Registry, input CameraInput) *Camera {
	t.Helper()
	cam, err := reg.AddCamera(context.Background(), input)
	if err != nil {
		t.Fatalf("AddCamera failed: %v", err)
	}
	return cam
}

func TestDefaultRegistry_AddCamera(t *testing.T) {
	ctx := context.Background()
	reg, clock := newTestRegistry(60 * time.Second)

	input := testCameraInput("TestCam", "ModelX", "192.168.0.10")
	input.Feeds = []FeedInput{{Protocol: ProtocolRTSP, Port: 554, Path: "/main"}}

	cam, err := reg.AddCamera(ctx, input)
	if err != nil {
		t.Fatalf("AddCamera failed: %v", err)
	}

	if cam.ID == "" {
		t.Error("Expected camera ID to be set")
	}
	if cam.Name != "TestCam" || cam.Model != "ModelX" {
		t.Errorf("Unexpected camera fields: %s / %s", cam.Name, cam.Model)
	}
	if !cam.CreatedAt.Equal(clock.Now()) {
		t.Errorf("Expected CreatedAt %v, got %v", clock.Now(), cam.CreatedAt)
	}
	if !cam.UpdatedAt.Equal(cam.CreatedAt) {
		t.Error("Expected UpdatedAt to equal CreatedAt on creation")
	}
	if cam.LastCheckin != nil {
		t.Error("Expected LastCheckin to be absent on creation")
	}

	// 作成時に渡したフィードにもIDが採番される
	if len(cam.Feeds) != 1 {
		t.Fatalf("Expected 1 feed, got %d", len(cam.Feeds))
	}
	if cam.Feeds[0].ID == "" {
		t.Error("Expected feed ID to be set")
	}
	if cam.Feeds[0].Protocol != ProtocolRTSP || cam.Feeds[0].Port != 554 || cam.Feeds[0].Path != "/main" {
		t.Errorf("Unexpected feed fields: %+v", cam.Feeds[0])
	}
}

func TestDefaultRegistry_AddCameraDuplicateIP(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(60 * time.Second)

	mustAddCamera(t, reg, testCameraInput("CamA", "ModelX", "192.168.0.10"))

	// 同じIPアドレスでの登録はConflict
	_, err := reg.AddCamera(ctx, testCameraInput("CamB", "ModelY", "192.168.0.10"))
	if err == nil {
		t.Fatal("Expected conflict error for duplicate IP, got nil")
	}
	if !IsConflict(err) {
		t.Fatalf("Expected conflict error, got %v", err)
	}

	// 失敗後もそのIPのカメラは1台だけ
	if reg.Count() != 1 {
		t.Errorf("Expected 1 camera after rejected add, got %d", reg.Count())
	}
}

func TestDefaultRegistry_AddCameraDuplicateNameModel(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(60 * time.Second)

	mustAddCamera(t, reg, testCameraInput("CamA", "ModelX", "192.168.0.10"))

	// IPが違っても(名前, 機種)の組が同じならConflict
	_, err := reg.AddCamera(ctx, testCameraInput("CamA", "ModelX", "192.168.0.11"))
	if err == nil || !IsConflict(err) {
		t.Fatalf("Expected conflict error for duplicate (name, model), got %v", err)
	}

	// 名前だけ、機種だけの一致は許される
	if _, err := reg.AddCamera(ctx, testCameraInput("CamA", "ModelY", "192.168.0.12")); err != nil {
		t.Errorf("Same name with different model should be allowed: %v", err)
	}
	if _, err := reg.AddCamera(ctx, testCameraInput("CamB", "ModelX", "192.168.0.13")); err != nil {
		t.Errorf("Same model with different name should be allowed: %v", err)
	}
}

func TestDefaultRegistry_AddCameraInitialFeedBatch(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(60 * time.Second)

	// 作成時のフィード群には重複検査が適用されない（既知の非対称）
	input := testCameraInput("TestCam", "ModelX", "192.168.0.10")
	input.Feeds = []FeedInput{
		{Protocol: ProtocolRTSP, Port: 554, Path: "/main"},
		{Protocol: ProtocolRTSP, Port: 554, Path: "/main"},
	}

	cam, err := reg.AddCamera(ctx, input)
	if err != nil {
		t.Fatalf("AddCamera with duplicate initial feeds should succeed: %v", err)
	}
	if len(cam.Feeds) != 2 {
		t.Fatalf("Expected 2 feeds, got %d", len(cam.Feeds))
	}
	if cam.Feeds[0].ID == cam.Feeds[1].ID {
		t.Error("Expected distinct feed IDs in initial batch")
	}
}

func TestDefaultRegistry_GetCamera(t *testing.T) {
	reg, _ := newTestRegistry(60 * time.Second)

	created := mustAddCamera(t, reg, testCameraInput("TestCam", "ModelX", "192.168.0.10"))

	got, err := reg.GetCamera(created.ID)
	if err != nil {
		t.Fatalf("GetCamera failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("Expected camera %s, got %s", created.ID, got.ID)
	}

	// 存在しないID
	_, err = reg.GetCamera("missing-id")
	if err == nil || !IsNotFound(err) {
		t.Fatalf("Expected not found error, got %v", err)
	}
}

func TestDefaultRegistry_GetCameraReturnsCopy(t *testing.T) {
	reg, _ := newTestRegistry(60 * time.Second)

	input := testCameraInput("TestCam", "ModelX", "192.168.0.10")
	input.Feeds = []FeedInput{{Protocol: ProtocolRTSP, Port: 554, Path: "/main"}}
	created := mustAddCamera(t, reg, input)

	// 返されたコピーを書き換えても内部状態には影響しない
	got, _ := reg.GetCamera(created.ID)
	got.Name = "Tampered"
	got.Feeds[0].Port = 9999

	fresh, _ := reg.GetCamera(created.ID)
	if fresh.Name != "TestCam" {
		t.Errorf("Internal state mutated through returned copy: name=%s", fresh.Name)
	}
	if fresh.Feeds[0].Port != 554 {
		t.Errorf("Internal state mutated through returned feed: port=%d", fresh.Feeds[0].Port)
	}
}

func TestDefaultRegistry_UpdateCamera(t *testing.T) {
	ctx := context.Background()
	reg, clock := newTestRegistry(60 * time.Second)

	created := mustAddCamera(t, reg, testCameraInput("TestCam", "ModelX", "192.168.0.10"))
	createdAt := created.CreatedAt

	clock.Advance(time.Minute)

	// 指定したフィールドだけが上書きされる
	name := "Renamed"
	updated, err := reg.UpdateCamera(ctx, created.ID, CameraUpdate{Name: &name})
	if err != nil {
		t.Fatalf("UpdateCamera failed: %v", err)
	}
	if updated.Name != "Renamed" {
		t.Errorf("Expected name Renamed, got %s", updated.Name)
	}
	if updated.Model != "ModelX" {
		t.Errorf("Unspecified field should be untouched, got model %s", updated.Model)
	}
	if !updated.UpdatedAt.After(createdAt) {
		t.Error("Expected UpdatedAt to advance on actual change")
	}
	if !updated.CreatedAt.Equal(createdAt) {
		t.Error("CreatedAt should never change")
	}

	// 存在しないID
	_, err = reg.UpdateCamera(ctx, "missing-id", CameraUpdate{Name: &name})
	if err == nil || !IsNotFound(err) {
		t.Fatalf("Expected not found error, got %v", err)
	}
}

func TestDefaultRegistry_UpdateCameraNoOp(t *testing.T) {
	ctx := context.Background()
	reg, clock := newTestRegistry(60 * time.Second)

	created := mustAddCamera(t, reg, testCameraInput("TestCam", "ModelX", "192.168.0.10"))

	clock.Advance(time.Minute)

	// 全フィールド未指定の更新は更新時刻を進めない
	updated, err := reg.UpdateCamera(ctx, created.ID, CameraUpdate{})
	if err != nil {
		t.Fatalf("UpdateCamera failed: %v", err)
	}
	if !updated.UpdatedAt.Equal(created.UpdatedAt) {
		t.Error("No-op update should not advance UpdatedAt")
	}

	// 現在値と同じ値を指定しても更新時刻を進めない
	sameName := "TestCam"
	updated, err = reg.UpdateCamera(ctx, created.ID, CameraUpdate{Name: &sameName})
	if err != nil {
		t.Fatalf("UpdateCamera failed: %v", err)
	}
	if !updated.UpdatedAt.Equal(created.UpdatedAt) {
		t.Error("Equal-value update should not advance UpdatedAt")
	}
}

func TestDefaultRegistry_UpdateCameraSkipsUniquenessCheck(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(60 * time.Second)

	mustAddCamera(t, reg, testCameraInput("CamA", "ModelX", "192.168.0.10"))
	camB := mustAddCamera(t, reg, testCameraInput("CamB", "ModelY", "192.168.0.11"))

	// 更新では一意性を再検査しないため、IPの重複が合法的に作れる
	dup := netip.MustParseAddr("192.168.0.10")
	updated, err := reg.UpdateCamera(ctx, camB.ID, CameraUpdate{Network: &dup})
	if err != nil {
		t.Fatalf("Update to duplicate IP should succeed: %v", err)
	}
	if updated.Network != dup {
		t.Errorf("Expected network %v, got %v", dup, updated.Network)
	}
}

func TestDefaultRegistry_RemoveCamera(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(60 * time.Second)

	input := testCameraInput("TestCam", "ModelX", "192.168.0.10")
	input.Feeds = []FeedInput{{Protocol: ProtocolRTSP, Port: 554, Path: "/main"}}
	created := mustAddCamera(t, reg, input)
	feedID := created.Feeds[0].ID

	if err := reg.RemoveCamera(ctx, created.ID); err != nil {
		t.Fatalf("RemoveCamera failed: %v", err)
	}

	// カメラ本体もフィードも一括で消える
	if _, err := reg.GetCamera(created.ID); !IsNotFound(err) {
		t.Errorf("Expected not found after removal, got %v", err)
	}
	if _, err := reg.ListFeeds(created.ID, FeedFilter{}, 1, 20); !IsNotFound(err) {
		t.Errorf("Expected not found for feeds after removal, got %v", err)
	}
	if _, err := reg.UpdateFeed(ctx, created.ID, feedID, FeedUpdate{}); !IsNotFound(err) {
		t.Errorf("Expected not found for feed update after removal, got %v", err)
	}

	// 占有されていたポートも解放される
	other := mustAddCamera(t, reg, testCameraInput("Other", "ModelY", "192.168.0.11"))
	if _, err := reg.AddFeed(ctx, other.ID, FeedInput{Protocol: ProtocolRTSP, Port: 554, Path: "/"}); err != nil {
		t.Errorf("Port should be free after cascade removal: %v", err)
	}

	// 二重削除はNotFound
	if err := reg.RemoveCamera(ctx, created.ID); !IsNotFound(err) {
		t.Errorf("Expected not found on double removal, got %v", err)
	}
}

func TestDefaultRegistry_ListCamerasFilterModel(t *testing.T) {
	reg, _ := newTestRegistry(60 * time.Second)

	mustAddCamera(t, reg, testCameraInput("A", "AXIS P1455", "10.0.0.1"))
	mustAddCamera(t, reg, testCameraInput("B", "Hikvision DS-2CD", "10.0.0.2"))
	mustAddCamera(t, reg, testCameraInput("C", "axis q6135", "10.0.0.3"))

	// 大文字小文字を区別しない部分一致
	got, err := reg.ListCameras(CameraFilter{Model: "axis"}, 1, 20)
	if err != nil {
		t.Fatalf("ListCameras failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 cameras matching model, got %d", len(got))
	}
	if got[0].Name != "A" || got[1].Name != "C" {
		t.Errorf("Expected cameras A and C in creation order, got %s and %s", got[0].Name, got[1].Name)
	}
}

func TestDefaultRegistry_ListCamerasFilterIPRange(t *testing.T) {
	reg, _ := newTestRegistry(60 * time.Second)

	mustAddCamera(t, reg, testCameraInput("A", "M", "10.0.0.1"))
	mustAddCamera(t, reg, testCameraInput("B", "M2", "10.0.0.5"))
	mustAddCamera(t, reg, testCameraInput("C", "M3", "10.0.0.9"))

	// 両端を含む範囲
	got, err := reg.ListCameras(CameraFilter{IPFrom: "10.0.0.1", IPTo: "10.0.0.5"}, 1, 20)
	if err != nil {
		t.Fatalf("ListCameras failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 cameras in range, got %d", len(got))
	}

	// 下限のみ
	got, _ = reg.ListCameras(CameraFilter{IPFrom: "10.0.0.5"}, 1, 20)
	if len(got) != 2 {
		t.Errorf("Expected 2 cameras at or above lower bound, got %d", len(got))
	}

	// 上限のみ
	got, _ = reg.ListCameras(CameraFilter{IPTo: "10.0.0.4"}, 1, 20)
	if len(got) != 1 {
		t.Errorf("Expected 1 camera at or below upper bound, got %d", len(got))
	}

	// 不正なリテラルはConflict
	_, err = reg.ListCameras(CameraFilter{IPFrom: "not-an-ip"}, 1, 20)
	if err == nil || !IsConflict(err) {
		t.Fatalf("Expected conflict error for malformed IP, got %v", err)
	}

	// 先行するフィルタで空になっていても解析失敗はConflict
	_, err = reg.ListCameras(CameraFilter{Model: "no-such-model", IPTo: "bad"}, 1, 20)
	if err == nil || !IsConflict(err) {
		t.Fatalf("Expected conflict error even with empty intermediate set, got %v", err)
	}
}

func TestDefaultRegistry_ListCamerasFilterOnline(t *testing.T) {
	ctx := context.Background()
	reg, clock := newTestRegistry(60 * time.Second)

	camA := mustAddCamera(t, reg, testCameraInput("A", "M", "10.0.0.1"))
	mustAddCamera(t, reg, testCameraInput("B", "M2", "10.0.0.2"))

	if err := reg.Heartbeat(ctx, camA.ID); err != nil {
		t.Fatalf("Heartbeat failed: %v", err)
	}

	online := true
	offline := false

	got, err := reg.ListCameras(CameraFilter{Online: &online}, 1, 20)
	if err != nil {
		t.Fatalf("ListCameras failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != camA.ID {
		t.Fatalf("Expected only camera A online, got %d cameras", len(got))
	}

	got, _ = reg.ListCameras(CameraFilter{Online: &offline}, 1, 20)
	if len(got) != 1 || got[0].Name != "B" {
		t.Fatalf("Expected only camera B offline, got %d cameras", len(got))
	}

	// タイムアウト経過後は書き込みなしで判定が反転する
	clock.Advance(61 * time.Second)
	got, _ = reg.ListCameras(CameraFilter{Online: &online}, 1, 20)
	if len(got) != 0 {
		t.Errorf("Expected no cameras online after timeout, got %d", len(got))
	}
	got, _ = reg.ListCameras(CameraFilter{Online: &offline}, 1, 20)
	if len(got) != 2 {
		t.Errorf("Expected 2 cameras offline after timeout, got %d", len(got))
	}
}

func TestDefaultRegistry_ListCamerasCombinedFilters(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(60 * time.Second)

	camA := mustAddCamera(t, reg, testCameraInput("A", "AXIS", "10.0.0.1"))
	mustAddCamera(t, reg, testCameraInput("B", "AXIS", "10.0.0.8"))
	camC := mustAddCamera(t, reg, testCameraInput("C", "AXIS", "10.0.0.3"))

	_ = reg.Heartbeat(ctx, camA.ID)
	_ = reg.Heartbeat(ctx, camC.ID)

	// model → IPレンジ → online の順で絞り込まれる
	online := true
	got, err := reg.ListCameras(CameraFilter{
		Model:  "axis",
		IPFrom: "10.0.0.1",
		IPTo:   "10.0.0.5",
		Online: &online,
	}, 1, 20)
	if err != nil {
		t.Fatalf("ListCameras failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 cameras after combined filters, got %d", len(got))
	}
	if got[0].ID != camA.ID || got[1].ID != camC.ID {
		t.Error("Expected cameras A and C in creation order")
	}
}

func TestDefaultRegistry_ListCamerasPagination(t *testing.T) {
	reg, _ := newTestRegistry(60 * time.Second)

	for i := 0; i < 5; i++ {
		mustAddCamera(t, reg, testCameraInput(
			fmt.Sprintf("Cam%d", i),
			fmt.Sprintf("Model%d", i),
			fmt.Sprintf("10.0.0.%d", i+1),
		))
	}

	full, err := reg.ListCameras(CameraFilter{}, 1, 100)
	if err != nil {
		t.Fatalf("ListCameras failed: %v", err)
	}
	if len(full) != 5 {
		t.Fatalf("Expected 5 cameras, got %d", len(full))
	}

	// 全ページを連結すると元の並びを過不足なく再現する
	var pages []Camera
	for page := 1; ; page++ {
		chunk, err := reg.ListCameras(CameraFilter{}, page, 2)
		if err != nil {
			t.Fatalf("ListCameras page %d failed: %v", page, err)
		}
		if len(chunk) == 0 {
			break
		}
		pages = append(pages, chunk...)
	}
	if len(pages) != len(full) {
		t.Fatalf("Expected %d cameras across pages, got %d", len(full), len(pages))
	}
	for i := range full {
		if pages[i].ID != full[i].ID {
			t.Fatalf("Page concatenation out of order at index %d", i)
		}
	}

	// 範囲外のページは空（エラーにはならない）
	got, err := reg.ListCameras(CameraFilter{}, 10, 2)
	if err != nil {
		t.Fatalf("Out-of-range page should not error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected empty page out of range, got %d", len(got))
	}

	// 端数ページ
	got, _ = reg.ListCameras(CameraFilter{}, 3, 2)
	if len(got) != 1 {
		t.Errorf("Expected 1 camera on last page, got %d", len(got))
	}

	// 正でないページサイズも空
	got, err = reg.ListCameras(CameraFilter{}, 1, -5)
	if err != nil {
		t.Fatalf("Non-positive page size should not error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected empty result for non-positive page size, got %d", len(got))
	}

	// ページ番号0も空
	got, _ = reg.ListCameras(CameraFilter{}, 0, 2)
	if len(got) != 0 {
		t.Errorf("Expected empty result for page 0, got %d", len(got))
	}
}

func TestDefaultRegistry_AddFeed(t *testing.T) {
	ctx := context.Background()
	reg, clock := newTestRegistry(60 * time.Second)

	created := mustAddCamera(t, reg, testCameraInput("TestCam", "ModelX", "192.168.0.10"))

	clock.Advance(time.Minute)

	feed, err := reg.AddFeed(ctx, created.ID, FeedInput{Protocol: ProtocolRTSP, Port: 554, Path: "/main"})
	if err != nil {
		t.Fatalf("AddFeed failed: %v", err)
	}
	if feed.ID == "" {
		t.Error("Expected feed ID to be set")
	}

	// フィード追加はカメラの更新時刻を進める
	cam, _ := reg.GetCamera(created.ID)
	if !cam.UpdatedAt.After(created.UpdatedAt) {
		t.Error("Expected UpdatedAt to advance after feed addition")
	}
	if len(cam.Feeds) != 1 {
		t.Fatalf("Expected 1 feed, got %d", len(cam.Feeds))
	}

	// 存在しないカメラ
	_, err = reg.AddFeed(ctx, "missing-id", FeedInput{Protocol: ProtocolRTSP, Port: 555, Path: "/"})
	if err == nil || !IsNotFound(err) {
		t.Fatalf("Expected not found error, got %v", err)
	}
}

func TestDefaultRegistry_AddFeedDuplicateProtocolPort(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(60 * time.Second)

	created := mustAddCamera(t, reg, testCameraInput("TestCam", "ModelX", "192.168.0.10"))

	if _, err := reg.AddFeed(ctx, created.ID, FeedInput{Protocol: ProtocolRTSP, Port: 554, Path: "/main"}); err != nil {
		t.Fatalf("First AddFeed failed: %v", err)
	}

	// 同一カメラ内の同じ(プロトコル, ポート)はConflict
	_, err := reg.AddFeed(ctx, created.ID, FeedInput{Protocol: ProtocolRTSP, Port: 554, Path: "/alt"})
	if err == nil || !IsConflict(err) {
		t.Fatalf("Expected conflict for duplicate (protocol, port), got %v", err)
	}

	// プロトコルが違ってもポートが同じなら全体横断ルールでConflict
	_, err = reg.AddFeed(ctx, created.ID, FeedInput{Protocol: ProtocolHTTP, Port: 554, Path: "/alt"})
	if err == nil || !IsConflict(err) {
		t.Fatalf("Expected conflict for reused port on same camera, got %v", err)
	}
}

func TestDefaultRegistry_AddFeedGlobalPortUniqueness(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(60 * time.Second)

	inputA := testCameraInput("CamA", "ModelX", "192.168.0.10")
	inputA.Feeds = []FeedInput{{Protocol: ProtocolRTSP, Port: 554, Path: "/main"}}
	mustAddCamera(t, reg, inputA)
	camB := mustAddCamera(t, reg, testCameraInput("CamB", "ModelY", "192.168.0.11"))

	// 別カメラでも同じポートはプロトコルに関係なくConflict
	_, err := reg.AddFeed(ctx, camB.ID, FeedInput{Protocol: ProtocolHTTP, Port: 554, Path: "/alt"})
	if err == nil || !IsConflict(err) {
		t.Fatalf("Expected conflict for port reuse across cameras, got %v", err)
	}

	// 別ポートなら追加できる
	if _, err := reg.AddFeed(ctx, camB.ID, FeedInput{Protocol: ProtocolHTTP, Port: 8080, Path: "/"}); err != nil {
		t.Errorf("Distinct port should be allowed: %v", err)
	}
}

func TestDefaultRegistry_UpdateFeed(t *testing.T) {
	ctx := context.Background()
	reg, clock := newTestRegistry(60 * time.Second)

	input := testCameraInput("TestCam", "ModelX", "192.168.0.10")
	input.Feeds = []FeedInput{{Protocol: ProtocolRTSP, Port: 554, Path: "/main"}}
	created := mustAddCamera(t, reg, input)
	feedID := created.Feeds[0].ID

	clock.Advance(time.Minute)

	// 指定したフィールドだけが上書きされる
	port := 8554
	updated, err := reg.UpdateFeed(ctx, created.ID, feedID, FeedUpdate{Port: &port})
	if err != nil {
		t.Fatalf("UpdateFeed failed: %v", err)
	}
	if updated.Port != 8554 {
		t.Errorf("Expected port 8554, got %d", updated.Port)
	}
	if updated.Protocol != ProtocolRTSP || updated.Path != "/main" {
		t.Errorf("Unspecified fields should be untouched: %+v", updated)
	}

	cam, _ := reg.GetCamera(created.ID)
	if !cam.UpdatedAt.After(created.UpdatedAt) {
		t.Error("Expected camera UpdatedAt to advance after feed update")
	}

	// フィールド未指定でも成功すれば更新時刻は進む（カメラ更新との非対称）
	clock.Advance(time.Minute)
	before, _ := reg.GetCamera(created.ID)
	if _, err := reg.UpdateFeed(ctx, created.ID, feedID, FeedUpdate{}); err != nil {
		t.Fatalf("Empty feed update failed: %v", err)
	}
	after, _ := reg.GetCamera(created.ID)
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Error("Expected UpdatedAt to advance even on empty feed update")
	}

	// 存在しないカメラ／フィード
	if _, err := reg.UpdateFeed(ctx, "missing-id", feedID, FeedUpdate{}); !IsNotFound(err) {
		t.Errorf("Expected not found for missing camera, got %v", err)
	}
	if _, err := reg.UpdateFeed(ctx, created.ID, "missing-feed", FeedUpdate{}); !IsNotFound(err) {
		t.Errorf("Expected not found for missing feed, got %v", err)
	}
}

func TestDefaultRegistry_UpdateFeedSkipsUniquenessCheck(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(60 * time.Second)

	input := testCameraInput("TestCam", "ModelX", "192.168.0.10")
	input.Feeds = []FeedInput{
		{Protocol: ProtocolRTSP, Port: 554, Path: "/main"},
		{Protocol: ProtocolHTTP, Port: 8080, Path: "/"},
	}
	created := mustAddCamera(t, reg, input)

	// 更新では一意性を再検査しないため、ポートの重複が合法的に作れる
	dupPort := 554
	updated, err := reg.UpdateFeed(ctx, created.ID, created.Feeds[1].ID, FeedUpdate{Port: &dupPort})
	if err != nil {
		t.Fatalf("Update to duplicate port should succeed: %v", err)
	}
	if updated.Port != 554 {
		t.Errorf("Expected port 554, got %d", updated.Port)
	}
}

func TestDefaultRegistry_RemoveFeed(t *testing.T) {
	ctx := context.Background()
	reg, clock := newTestRegistry(60 * time.Second)

	input := testCameraInput("TestCam", "ModelX", "192.168.0.10")
	input.Feeds = []FeedInput{
		{Protocol: ProtocolRTSP, Port: 554, Path: "/main"},
		{Protocol: ProtocolHTTP, Port: 8080, Path: "/"},
	}
	created := mustAddCamera(t, reg, input)

	clock.Advance(time.Minute)

	if err := reg.RemoveFeed(ctx, created.ID, created.Feeds[0].ID); err != nil {
		t.Fatalf("RemoveFeed failed: %v", err)
	}

	cam, _ := reg.GetCamera(created.ID)
	if len(cam.Feeds) != 1 {
		t.Fatalf("Expected 1 feed after removal, got %d", len(cam.Feeds))
	}
	if cam.Feeds[0].ID != created.Feeds[1].ID {
		t.Error("Wrong feed removed")
	}
	if !cam.UpdatedAt.After(created.UpdatedAt) {
		t.Error("Expected UpdatedAt to advance after feed removal")
	}

	// 二重削除はNotFound
	if err := reg.RemoveFeed(ctx, created.ID, created.Feeds[0].ID); !IsNotFound(err) {
		t.Errorf("Expected not found on double feed removal, got %v", err)
	}
	if err := reg.RemoveFeed(ctx, "missing-id", created.Feeds[1].ID); !IsNotFound(err) {
		t.Errorf("Expected not found for missing camera, got %v", err)
	}
}

func TestDefaultRegistry_ListFeeds(t *testing.T) {
	reg, _ := newTestRegistry(60 * time.Second)

	input := testCameraInput("TestCam", "ModelX", "192.168.0.10")
	input.Feeds = []FeedInput{
		{Protocol: ProtocolRTSP, Port: 554, Path: "/main"},
		{Protocol: ProtocolRTSP, Port: 8554, Path: "/sub"},
		{Protocol: ProtocolHTTP, Port: 8080, Path: "/mjpeg/main"},
	}
	created := mustAddCamera(t, reg, input)

	// 無条件なら全件
	got, err := reg.ListFeeds(created.ID, FeedFilter{}, 1, 20)
	if err != nil {
		t.Fatalf("ListFeeds failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 feeds, got %d", len(got))
	}

	// プロトコルは大文字小文字を区別しない完全一致
	got, _ = reg.ListFeeds(created.ID, FeedFilter{Protocol: "RTSP"}, 1, 20)
	if len(got) != 2 {
		t.Errorf("Expected 2 rtsp feeds, got %d", len(got))
	}

	// ポートは完全一致
	port := 8080
	got, _ = reg.ListFeeds(created.ID, FeedFilter{Port: &port}, 1, 20)
	if len(got) != 1 || got[0].Protocol != ProtocolHTTP {
		t.Errorf("Expected the http feed for port 8080, got %d feeds", len(got))
	}

	// パスは大文字小文字を区別しない部分一致
	got, _ = reg.ListFeeds(created.ID, FeedFilter{PathQuery: "MAIN"}, 1, 20)
	if len(got) != 2 {
		t.Errorf("Expected 2 feeds matching path, got %d", len(got))
	}

	// 条件はANDで結合される
	got, _ = reg.ListFeeds(created.ID, FeedFilter{Protocol: "rtsp", PathQuery: "main"}, 1, 20)
	if len(got) != 1 || got[0].Path != "/main" {
		t.Errorf("Expected only /main for combined filters, got %d feeds", len(got))
	}

	// ページング
	got, _ = reg.ListFeeds(created.ID, FeedFilter{}, 2, 2)
	if len(got) != 1 {
		t.Errorf("Expected 1 feed on second page, got %d", len(got))
	}

	// 存在しないカメラ
	if _, err := reg.ListFeeds("missing-id", FeedFilter{}, 1, 20); !IsNotFound(err) {
		t.Fatalf("Expected not found error, got %v", err)
	}
}

func TestDefaultRegistry_HeartbeatAndIsOnline(t *testing.T) {
	ctx := context.Background()
	reg, clock := newTestRegistry(60 * time.Second)

	created := mustAddCamera(t, reg, testCameraInput("TestCam", "ModelX", "192.168.0.10"))

	// ハートビート前はオフライン
	online, err := reg.IsOnline(created.ID)
	if err != nil {
		t.Fatalf("IsOnline failed: %v", err)
	}
	if online {
		t.Error("Expected offline before any heartbeat")
	}

	// ハートビート直後はオンライン
	if err := reg.Heartbeat(ctx, created.ID); err != nil {
		t.Fatalf("Heartbeat failed: %v", err)
	}
	cam, _ := reg.GetCamera(created.ID)
	if cam.LastCheckin == nil {
		t.Fatal("Expected LastCheckin to be set after heartbeat")
	}
	if !cam.UpdatedAt.Equal(*cam.LastCheckin) {
		t.Error("Expected heartbeat to stamp UpdatedAt and LastCheckin together")
	}
	if online, _ = reg.IsOnline(created.ID); !online {
		t.Error("Expected online right after heartbeat")
	}

	// ちょうどタイムアウトまではオンライン（境界を含む）
	clock.Advance(60 * time.Second)
	if online, _ = reg.IsOnline(created.ID); !online {
		t.Error("Expected online exactly at the timeout boundary")
	}

	// タイムアウトを厳密に超えると書き込みなしでオフラインに反転する
	clock.Advance(time.Second)
	if online, _ = reg.IsOnline(created.ID); online {
		t.Error("Expected offline once past the timeout")
	}

	// 存在しないカメラ
	if err := reg.Heartbeat(ctx, "missing-id"); !IsNotFound(err) {
		t.Errorf("Expected not found for heartbeat, got %v", err)
	}
	if _, err := reg.IsOnline("missing-id"); !IsNotFound(err) {
		t.Errorf("Expected not found for IsOnline, got %v", err)
	}
}

// TestDefaultRegistry_EndToEndScenario は登録から生存判定までの一連の流れを検証する
func TestDefaultRegistry_EndToEndScenario(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(60 * time.Second)

	inputA := testCameraInput("X", "M", "10.0.0.1")
	inputA.Feeds = []FeedInput{{Protocol: ProtocolRTSP, Port: 554, Path: "/"}}
	camA := mustAddCamera(t, reg, inputA)

	camB := mustAddCamera(t, reg, testCameraInput("Y", "M", "10.0.0.2"))

	// 機種名の部分一致は大文字小文字を区別しない
	got, err := reg.ListCameras(CameraFilter{Model: "m"}, 1, 20)
	if err != nil {
		t.Fatalf("ListCameras failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected both cameras for model filter, got %d", len(got))
	}

	// Aが使用中のポート554はBには追加できない
	_, err = reg.AddFeed(ctx, camB.ID, FeedInput{Protocol: ProtocolHTTP, Port: 554, Path: "/alt"})
	if err == nil || !IsConflict(err) {
		t.Fatalf("Expected conflict for port 554 on camera B, got %v", err)
	}

	// ハートビート後はAだけがオンライン
	if err := reg.Heartbeat(ctx, camA.ID); err != nil {
		t.Fatalf("Heartbeat failed: %v", err)
	}
	online := true
	got, err = reg.ListCameras(CameraFilter{Online: &online}, 1, 20)
	if err != nil {
		t.Fatalf("ListCameras failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != camA.ID {
		t.Fatalf("Expected only camera A online, got %d cameras", len(got))
	}
}

func TestDefaultRegistry_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	reg := NewDefaultRegistry(NewMemoryStore(), 60*time.Second)

	// 複数のゴルーチンで読み書きを同時に行う
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			input := testCameraInput(
				fmt.Sprintf("Cam%d", i),
				fmt.Sprintf("Model%d", i),
				fmt.Sprintf("10.0.1.%d", i+1),
			)
			cam, err := reg.AddCamera(ctx, input)
			if err != nil {
				t.Errorf("AddCamera failed: %v", err)
				return
			}
			if _, err := reg.AddFeed(ctx, cam.ID, FeedInput{Protocol: ProtocolRTSP, Port: 10000 + i, Path: "/"}); err != nil {
				t.Errorf("AddFeed failed: %v", err)
			}
			if err := reg.Heartbeat(ctx, cam.ID); err != nil {
				t.Errorf("Heartbeat failed: %v", err)
			}
			if _, err := reg.ListCameras(CameraFilter{}, 1, 20); err != nil {
				t.Errorf("ListCameras failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if reg.Count() != 8 {
		t.Fatalf("Expected 8 cameras after concurrent access, got %d", reg.Count())
	}

	// 全カメラのポートが一意に保たれている
	cams, err := reg.ListCameras(CameraFilter{}, 1, 100)
	if err != nil {
		t.Fatalf("ListCameras failed: %v", err)
	}
	seen := make(map[int]bool)
	for _, cam := range cams {
		for _, f := range cam.Feeds {
			if seen[f.Port] {
				t.Fatalf("Duplicate port %d across cameras", f.Port)
			}
			seen[f.Port] = true
		}
	}
}
