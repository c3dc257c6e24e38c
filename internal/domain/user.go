package domain

// User is the single local account on this node. The users table is
// constrained to one row (id = 1); this is a single-tenant server.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}
