package openapi

import _ "embed"

// Spec OpenAPI仕様ファイル（YAML形式）
//
//go:embed openapi.yaml
var Spec []byte
