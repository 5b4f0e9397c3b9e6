package model

import "time"

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User maps the users table. Authentication is email/password with JWT
// sessions; PasswordHash is bcrypt.
type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"type:varchar(320);not null;uniqueIndex" json:"email"`
	Name         string    `gorm:"type:varchar(255)" json:"name"`
	PasswordHash string    `gorm:"type:varchar(100);not null" json:"-"`
	Role         string    `gorm:"type:varchar(20);not null;default:user" json:"role"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
	LastSignedIn time.Time `json:"lastSignedIn"`
}

func (User) TableName() string {
	return "users"
}
