// Package server は、カメラ台帳のHTTP APIを提供します。
//
// このパッケージは、ginによるルーティング、リクエストの束縛と検証、
// ドメインエラーのHTTP応答への変換、サーバーのライフサイクル管理を
// 担当します。
//
// 責務:
//   - HTTPサーバーの起動とグレースフルシャットダウン
//   - カメラ/フィード操作エンドポイントのルーティング
//   - リクエストボディとクエリパラメータの検証
//   - ドメインエラー（NotFound/Conflict/Validation）のステータス変換
//   - アクセスログとpanic復帰のミドルウェア
//   - OpenAPI定義と静的ページの配信
//
// 仕様:
//   - 成功応答はすべて200
//   - エラー応答は {"error","detail","path"} の共通形式
//   - 業務ルールはすべてRegistry側にあり、ここでは持たない
package server
