package tools

import (
	"fmt"

	"github.com/developer-mesh/mcp-github-server/internal/github"
	"github.com/developer-mesh/mcp-github-server/internal/observability"
)

// NewGatewayRegistry registers every provider the gateway serves and checks
// that the table covers all declared methods.
func NewGatewayRegistry(client github.Client, logger observability.Logger, info ServerInfo) (*Registry, error) {
	registry := NewRegistry()

	providers := []Provider{
		NewGitHubProvider(client, logger),
		NewUtilsProvider(),
		NewServerInfoProvider(registry, info),
	}
	for _, provider := range providers {
		if err := registry.Register(provider); err != nil {
			return nil, fmt.Errorf("failed to register provider: %w", err)
		}
	}

	if err := registry.Verify(); err != nil {
		return nil, err
	}
	return registry, nil
}
