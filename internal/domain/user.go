package domain

// Role is carried in the identity service's token.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleGuard   Role = "GUARD"
)
