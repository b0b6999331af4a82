// Package client はカメラ台帳サーバーのHTTP APIクライアントを提供する。
//
// 責務:
//   - 台帳の全操作（カメラCRUD、フィードCRUD、ハートビート、状態確認）の呼び出し
//   - エラー応答のRegistryと同じ業務エラー型への復元
//
// 仕様:
//   - サーバーが返すエラー種別に応じて camera.NotFoundError、
//     camera.ConflictError、camera.ValidationError のいずれかを返す。
//     呼び出し側は camera.IsNotFound などでサーバー越しでも同じ判定ができる
//   - 通信エラーやエラー種別が不明な応答はそのままerrorとして返す
//   - すべてのメソッドはcontextを受け取り、キャンセルと期限に従う
package client
