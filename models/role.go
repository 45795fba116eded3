package models

type UserRole string

const (
	RoleAdmin UserRole = "admin"
)

// Principal - аутентифицированный вызывающий (из JWT или логина).
type Principal struct {
	Name string   `json:"name"`
	Role UserRole `json:"role"`
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
