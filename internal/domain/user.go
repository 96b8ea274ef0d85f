package domain

import "time"

// User Model
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                                   // Primary key
	Email     string    `gorm:"unique;not null" json:"email"`                           // Unique email used for login
	Password  string    `gorm:"not null" json:"-"`                                      // Hashed password, never serialized
	CreatedAt time.Time `json:"created_at"`                                             // Registration timestamp
	Balance   Balance   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // One-to-one running balance row
}
