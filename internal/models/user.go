package models

// User is a stored account record. Balance carries the column's exact
// fixed-point text (e.g. "100000.00"); the auth core never does arithmetic
// on it.
type User struct {
	UID          int    `json:"uid"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Balance      string `json:"-"`
	Phone        string `json:"phone,omitempty"`
	Role         string `json:"role"`
}

type UserRole string

const (
	RoleCustomer UserRole = "Customer"
	RoleManager  UserRole = "Manager"
	RoleAdmin    UserRole = "Admin"
)

// DefaultBalance is assigned to every account at registration.
const DefaultBalance = "100000.00"

// PublicUser is the login response summary. It never carries the password
// hash or the balance.
type PublicUser struct {
	UID      int    `json:"uid"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (u *User) Public() PublicUser {
	return PublicUser{UID: u.UID, Username: u.Username, Role: u.Role}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	UserID  int    `json:"userId"`
}

type LoginResponse struct {
	Message string     `json:"message"`
	User    PublicUser `json:"user"`
}

type BalanceResponse struct {
	Balance string `json:"balance"`
}
