package users

import "time"

// User is the persisted account identity. PasswordHash holds a bcrypt
// digest; plaintext passwords never reach storage. Avatar carries an
// optional base64-encoded image supplied by the client.
type User struct {
	ID           uint      `gorm:"column:id;primaryKey"`
	Username     string    `gorm:"column:username;size:50;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;size:120;not null"`
	Avatar       string    `gorm:"column:avatar;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (User) TableName() string {
	return "users"
}
