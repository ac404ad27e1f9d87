package models

import (
	"slices"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a marketplace account.
// The chat core only reads it: by ID to resolve sender names and by Email
// to resolve the subject of a bearer token.
type User struct {
	// ID is the numeric identifier assigned by the database.
	ID        uint   `gorm:"primaryKey" json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	// Username is unique and doubles as the display name in chat.
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	// Email is the canonical identifier and the subject of issued tokens.
	Email string `gorm:"uniqueIndex;not null" json:"email"`
	// PasswordHash is a bcrypt hash; it never leaves the server.
	PasswordHash string `gorm:"not null" json:"-"`
	// Verified flips to true once the e-mail verification link is used.
	Verified bool           `gorm:"not null;default:false" json:"verified"`
	Roles    pq.StringArray `gorm:"type:text[]" json:"roles"`
	// CreatedAt is used to purge accounts that never got verified.
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

// BeforeCreate is a GORM hook run before the insert.
// It gives new accounts the default role and a creation time.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if len(u.Roles) == 0 {
		u.Roles = pq.StringArray{RoleUser}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	return
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// DisplayName is the name shown next to chat messages.
func (u *User) DisplayName() string {
	return u.Username
}

// UserDTO is the public view of a User.
type UserDTO struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
}

// ToUserDTO drops every private field of u.
func ToUserDTO(u *User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		Email:     u.Email,
	}
}
