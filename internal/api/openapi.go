package api

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var openapiDocument []byte

// Document は埋め込まれたOpenAPI定義の生のバイト列を返す
// GET /openapi.yaml でそのまま配信される
func Document() []byte {
	return openapiDocument
}

// LoadDocument は埋め込まれたOpenAPI定義を読み込んで検証する
// 定義が壊れている場合は起動時に検出できるようエラーを返す
func LoadDocument(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(openapiDocument)
	if err != nil {
		return nil, fmt.Errorf("OpenAPI定義の読み込みに失敗: %w", err)
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("OpenAPI定義の検証に失敗: %w", err)
	}

	return doc, nil
}
