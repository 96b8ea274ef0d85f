package domain

// Category Model
//
// A category belongs to exactly one user. Names are trimmed and non-empty but
// deliberately not unique: two categories called "Food" are allowed.
type Category struct {
	ID        uint   `gorm:"primaryKey" json:"id"`                   // Primary key
	UserID    uint   `gorm:"index;not null" json:"user_id"`          // Owning user
	Name      string `gorm:"not null" json:"name"`                   // Display name
	CreatedAt int64  `gorm:"autoCreateTime:milli" json:"created_at"` // Creation timestamp in milliseconds
}
