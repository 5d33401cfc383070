package job

import (
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/google/wire"
)

// Registry holds all background jobs for Kratos lifecycle management.
// A nil job is disabled.
type Registry struct {
	ActiveSponsorships *ActiveSponsorshipJob
}

// Servers returns all enabled jobs as transport.Server slice for kratos.Server().
func (r *Registry) Servers() []transport.Server {
	var servers []transport.Server
	if r.ActiveSponsorships != nil {
		servers = append(servers, r.ActiveSponsorships)
	}
	return servers
}

// ProviderSet is the job providers.
var ProviderSet = wire.NewSet(
	NewActiveSponsorshipJob,
	wire.Struct(new(Registry), "*"),
)
