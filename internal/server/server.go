package server

import (
	"github.com/google/wire"

	"github.com/orphancare/charity-service/internal/service"
	"github.com/orphancare/charity-service/pkg/auth"
)

// ProviderSet is server providers.
var ProviderSet = wire.NewSet(NewHTTPServer, NewGRPCServer)

// operationRoles lists the roles allowed per operation. Operations not
// listed are open to any authenticated user.
func operationRoles() map[string][]auth.Role {
	return map[string][]auth.Role{
		service.OperationSponsorshipCreateSponsorship: {auth.RoleDonor},
		service.OperationSponsorshipDeleteSponsorship: {auth.RoleDonor, auth.RoleAdmin},
		service.OperationSponsorshipListSponsorships:  {auth.RoleAdmin},
	}
}
