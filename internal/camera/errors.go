package camera

import (
	"errors"
	"fmt"
)

// Registryが返す業務エラーは以下の3種類のみ。
// それ以外の失敗は回復不能なプログラミングエラーとして扱い、
// この3種類に変換してはならない。

// NotFoundError は参照されたカメラまたはフィードが存在しないことを表す
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// ConflictError は一意性の制約違反、またはIPレンジ指定の解析失敗を表す
// 失敗した変更は一切適用されない（部分的な状態変化は起きない）
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// ValidationError はフィールド単位の業務ルール違反を表す
// 現在のRegistryの規則では内部から発生しないが、境界層の拡張用に
// 分類として予約されている
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsNotFound はエラーがNotFoundErrorかどうかを判定する
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsConflict はエラーがConflictErrorかどうかを判定する
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsValidation はエラーがValidationErrorかどうかを判定する
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func notFoundf(format string, args ...any) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}
