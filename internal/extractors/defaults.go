package extractors

import (
	csvext "github.com/custodia-labs/mailsift-cli/internal/extractors/csv"
	emlext "github.com/custodia-labs/mailsift-cli/internal/extractors/eml"
	htmlext "github.com/custodia-labs/mailsift-cli/internal/extractors/html"
	plainext "github.com/custodia-labs/mailsift-cli/internal/extractors/plaintext"
)

// Defaults returns a registry with every built-in extractor registered.
func Defaults() *Registry {
	registry := NewRegistry()
	registry.Register(csvext.New())
	registry.Register(htmlext.New())
	registry.Register(emlext.New())
	registry.Register(plainext.New())
	return registry
}
