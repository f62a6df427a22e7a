package constants

const (
	Viewer   = "viewer"
	Trader   = "trader"
	Operator = "operator"
)

// ValidRoles is the set of account roles.
var ValidRoles = []string{Viewer, Trader, Operator}

func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
