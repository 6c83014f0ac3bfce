package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	FirstName    string    `gorm:"type:varchar(150)" json:"first_name"`
	LastName     string    `gorm:"type:varchar(150)" json:"last_name"`
	Email        string    `gorm:"type:varchar(254)" json:"email"`
	PasswordHash []byte    `gorm:"not null" json:"-"`
	IsStaff      bool      `gorm:"not null" json:"is_staff"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// SameUser reports whether both users are present and have the same identity.
func SameUser(a, b *User) bool {
	return a != nil && b != nil && a.ID != 0 && a.ID == b.ID
}

func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.LastName
	}
}
