// Package camera ネットワークカメラ台帳の中核を担う
//
// # 責務
// - カメラとフィードのレコード管理（作成・取得・更新・削除）
// - コレクション横断の一意性制約の強制
// - ハートビートに基づくオンライン状態の算出
// - 絞り込み・ページングを伴う一覧照会
//
// # 使い分け
// このパッケージは以下の場合に使用する：
// - カメラの登録状態を一元管理したい
// - IPアドレスやポート番号の重複を防ぎたい
// - カメラの生存状態をハートビートで追跡したい
// - transport層から業務ルールを呼び出したい
//
// # 仕様
// - Store: 生のキー値保存のみを担い、業務ルールを持たない
// - Registry: 一意性検査・生存判定・照会を担う唯一の窓口
// - 一意性制約: IPアドレス、(名前, 機種)の組、同一カメラ内の
//   (プロトコル, ポート)の組、全カメラ横断のポート番号
// - オンライン判定は照会時に実時刻から算出する（常駐の失効処理なし）
// - コレクション全体を単一のRWMutexで保護する（横断走査があるため
//   レコード単位のロックでは不十分）
// - 業務エラーはNotFound / Conflict / Validationの3種類のみ
// - 永続化はプロセスメモリのみ（再起動で空に戻る）
package camera
