// Пакет openapi — встроенный OpenAPI-контракт Media Fetcher
// и валидация входящих запросов по нему (kin-openapi).
package openapi

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var contract []byte

var (
	swaggerOnce sync.Once
	swagger     *openapi3.T
	swaggerErr  error
)

// Contract возвращает исходный YAML контракта.
func Contract() []byte {
	return contract
}

// GetSwagger разбирает и проверяет встроенный контракт.
// Результат кэшируется: разбор выполняется один раз за процесс.
func GetSwagger() (*openapi3.T, error) {
	swaggerOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(contract)
		if err != nil {
			swaggerErr = fmt.Errorf("разбор OpenAPI контракта: %w", err)
			return
		}
		if err := doc.Validate(loader.Context); err != nil {
			swaggerErr = fmt.Errorf("проверка OpenAPI контракта: %w", err)
			return
		}
		swagger = doc
	})
	return swagger, swaggerErr
}
