package permission

import "verdant/internal/organization"

// Permission names follow "<module>:<verb>".
const (
	AccessionsRead   = "accessions:read"
	AccessionsCreate = "accessions:create"
	AccessionsUpdate = "accessions:update"
	AccessionsDelete = "accessions:delete"

	LocationsRead   = "locations:read"
	LocationsCreate = "locations:create"
	LocationsUpdate = "locations:update"
	LocationsDelete = "locations:delete"

	TaxaRead   = "taxa:read"
	TaxaCreate = "taxa:create"
	TaxaUpdate = "taxa:update"
	TaxaDelete = "taxa:delete"

	ActivityRead = "activity:read"

	OrganizationsRead        = "organizations:read"
	OrganizationsCreate      = "organizations:create"
	OrganizationsUpdate      = "organizations:update"
	OrganizationsDelete      = "organizations:delete"
	OrganizationsUsersList   = "organizations:users_list"
	OrganizationsUsersInvite = "organizations:users_invite"

	PermissionsRead   = "permissions:read"
	PermissionsCreate = "permissions:create"
	PermissionsUpdate = "permissions:update"
	PermissionsDelete = "permissions:delete"
)

var guestPermissions = []string{
	AccessionsRead,
	LocationsRead,
	TaxaRead,
	ActivityRead,
	OrganizationsRead,
}

var memberPermissions = append(guestPermissions[:len(guestPermissions):len(guestPermissions)],
	AccessionsCreate, AccessionsUpdate, AccessionsDelete,
	LocationsCreate, LocationsUpdate, LocationsDelete,
	TaxaCreate, TaxaUpdate, TaxaDelete,
	OrganizationsUsersList,
)

var adminPermissions = append(memberPermissions[:len(memberPermissions):len(memberPermissions)],
	OrganizationsCreate, OrganizationsUpdate, OrganizationsUsersInvite,
	PermissionsRead, PermissionsCreate, PermissionsUpdate, PermissionsDelete,
)

var ownerPermissions = append(adminPermissions[:len(adminPermissions):len(adminPermissions)],
	OrganizationsDelete,
)

// RolePermissions is the static expansion of each role into its granted
// permissions. Each role strictly contains the one below it.
var RolePermissions = map[organization.RoleType][]string{
	organization.RoleGuest:  guestPermissions,
	organization.RoleMember: memberPermissions,
	organization.RoleAdmin:  adminPermissions,
	organization.RoleOwner:  ownerPermissions,
}

var knownPermissions = func() map[string]struct{} {
	set := make(map[string]struct{}, len(ownerPermissions))
	for _, p := range ownerPermissions {
		set[p] = struct{}{}
	}
	return set
}()

// Known reports whether name is a defined permission.
func Known(name string) bool {
	_, ok := knownPermissions[name]
	return ok
}
