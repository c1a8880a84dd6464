package model

import (
	"time"

	"gorm.io/gorm"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Roles lists every valid role.
var Roles = []Role{RoleUser, RoleModerator, RoleAdmin}

// ParseRole returns the role named s.
func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

type User struct {
	Id          int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Username    string    `json:"username" gorm:"size:150;uniqueIndex;not null"`
	Email       string    `json:"email" gorm:"size:254;uniqueIndex;not null"`
	FirstName   string    `json:"first_name" gorm:"size:150"`
	LastName    string    `json:"last_name" gorm:"size:150"`
	Bio         string    `json:"bio" gorm:"type:text"`
	Role        Role      `json:"role" gorm:"size:16;not null"`
	IsStaff     bool      `json:"is_staff"`
	IsSuperuser bool      `json:"is_superuser"`
	DateJoined  time.Time `json:"date_joined" gorm:"autoCreateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// IsAdmin reports admin capability: the admin role, staff or superuser.
func (u *User) IsAdmin() bool {
	return u != nil && (u.Role == RoleAdmin || u.IsStaff || u.IsSuperuser)
}

func (u *User) IsModerator() bool {
	return u != nil && u.Role == RoleModerator
}
