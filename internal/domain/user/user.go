package user

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// User never carries the password hash; it stays in the auth repo.
type User struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Addresses []string `json:"addresses"`
	Role      Role     `json:"role"`
	CreatedAt int64    `json:"createdAt,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required"`
	Address  string `json:"address"`
}

// Session is the login/register response: the account plus a bearer token.
type Session struct {
	User
	Token    string    `json:"token"`
	TokenExp time.Time `json:"tokenExp"`
}
