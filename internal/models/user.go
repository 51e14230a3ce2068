package models

import (
	"time"
)

// User is an account allowed to record deliveries and returns
type User struct {
	Model
	Username           string     `json:"username" gorm:"Column:username;size:80;uniqueIndex;not null"`
	Email              string     `json:"email" gorm:"Column:email;size:120;uniqueIndex;not null"`
	PasswordHash       string     `json:"-" gorm:"Column:password_hash;size:128;not null"`
	IsActive           bool       `json:"is_active" gorm:"Column:is_active;not null;default:true"`
	LastLogin          *time.Time `json:"last_login" gorm:"Column:last_login"`
	LastPasswordChange time.Time  `json:"last_password_change" gorm:"Column:last_password_change"`
}

// PasswordExpired reports whether the password is older than maxAge.
// A zero maxAge disables expiry.
func (u *User) PasswordExpired(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 || u.LastPasswordChange.IsZero() {
		return false
	}
	return now.Sub(u.LastPasswordChange) > maxAge
}
