package model

import "time"

// Roles
const (
	RoleAdmin    = "admin"
	RoleGestor   = "gestor"
	RoleOperador = "operador"
)

// ValidRole reports whether r is a known role
func ValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleGestor, RoleOperador:
		return true
	}
	return false
}

// User auth identity, users table
type User struct {
	UserID       string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Email        string     `gorm:"type:varchar(150);not null;uniqueIndex"         json:"email"`
	PasswordHash string     `gorm:"type:varchar(100);not null"                     json:"-"`
	IsActive     bool       `gorm:"not null;default:true"                          json:"is_active"`
	LastSignInAt *time.Time `json:"last_sign_in_at,omitempty"`
	CreatedAt    time.Time  `gorm:"not null"                                       json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null"                                       json:"updated_at"`

	Profile *Profile   `gorm:"foreignKey:UserID;references:UserID" json:"profile,omitempty"`
	Roles   []UserRole `gorm:"foreignKey:UserID;references:UserID" json:"roles,omitempty"`
}

// TableName table name
func (User) TableName() string { return "users" }

// PrimaryRole the most privileged role the user holds
func (u *User) PrimaryRole() string {
	best := ""
	for _, r := range u.Roles {
		switch {
		case r.Role == RoleAdmin:
			return RoleAdmin
		case r.Role == RoleGestor:
			best = RoleGestor
		case best == "":
			best = r.Role
		}
	}
	return best
}

// CompanyID the company the user's profile is bound to, empty for none
func (u *User) CompanyID() string {
	if u.Profile == nil || u.Profile.CompanyID == nil {
		return ""
	}
	return *u.Profile.CompanyID
}

// Profile display data of a user, profiles table
type Profile struct {
	ProfileID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"profile_id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex"                 json:"user_id"`
	FullName  string    `gorm:"type:varchar(150);not null"                     json:"full_name"`
	CompanyID *string   `gorm:"type:uuid"                                      json:"company_id,omitempty"`
	CreatedAt time.Time `gorm:"not null"                                       json:"created_at"`
	UpdatedAt time.Time `gorm:"not null"                                       json:"updated_at"`
}

// TableName table name
func (Profile) TableName() string { return "profiles" }

// UserRole user_roles table
type UserRole struct {
	UserRoleID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_role_id"`
	UserID     string    `gorm:"type:uuid;not null"                             json:"user_id"`
	Role       string    `gorm:"type:varchar(20);not null"                      json:"role"`
	CreatedAt  time.Time `gorm:"not null"                                       json:"created_at"`
}

// TableName table name
func (UserRole) TableName() string { return "user_roles" }
