package api

import (
	"github.com/go-playground/validator/v10"

	"daicho/internal/camera"
)

// ProtocolValidationTag はフィードプロトコル検証のbindingタグ名
const ProtocolValidationTag = "camera_protocol"

// ValidateProtocol は camera_protocol タグの実装
// rtsp / http のみを許可する
func ValidateProtocol(fl validator.FieldLevel) bool {
	return camera.Protocol(fl.Field().String()).IsValid()
}

// RegisterValidations はカスタム検証をバリデータに登録する
// サーバー起動時にginのバリデータエンジンに対して一度だけ呼ぶ
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation(ProtocolValidationTag, ValidateProtocol)
}
