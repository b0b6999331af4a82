// Package api はHTTP境界のワイヤ表現を提供する
//
// # 責務
//
// - リクエスト/レスポンスのDTO定義とドメイン型との相互変換
// - 入力で省略されたフィールドへの既定値の適用（画質50、パス "/"）
// - OpenAPI定義の埋め込み・起動時検証・配信用バイト列の提供
// - bindingタグで使うカスタム検証の提供
//
// # 使い分け
//
// サーバーとクライアントの両方がこのパッケージのDTOを共有する。
// ドメインの型をワイヤに直接出さないことで、JSONのフィールド名と
// ドメイン側の命名を独立に保つ。
//
// # 仕様
//
// - JSONのフィールド名は camera_id / feed_protocol のようなsnake_case
// - 入力の検証はginのbinding（validator）で行い、違反は400になる
// - last_known_checkin は最初のハートビートまでnull
package api
