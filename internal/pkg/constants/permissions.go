package constants

const (
	ViewMarket   = "view_market"
	ListAssets   = "list_assets"
	MakeOffers   = "make_offers"
	Purchase     = "purchase"
	AcceptOffers = "accept_offers"
	ManageMarket = "manage_market"
)

// PermissionRoles maps each permission to the roles allowed to use it.
var PermissionRoles = map[string][]string{
	ViewMarket:   {Viewer, Trader, Operator},
	ListAssets:   {Trader, Operator},
	MakeOffers:   {Trader, Operator},
	Purchase:     {Trader, Operator},
	AcceptOffers: {Trader, Operator},
	ManageMarket: {Operator},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
