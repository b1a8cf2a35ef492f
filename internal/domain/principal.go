package domain

type Role string

const (
	RoleBuyer  Role = "BUYER"
	RoleSeller Role = "SELLER"
	RoleAdmin  Role = "ADMIN"
)

// Principal is the authenticated caller. It is passed explicitly into every
// operation that needs to know who is acting.
type Principal struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

func (p Principal) HasRole(role Role) bool {
	return p.Role == role
}
