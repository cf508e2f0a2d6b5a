package models

// User represents the user model in the database
type User struct {
	Base
	Name        string `gorm:"not null" json:"name"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	PhoneNumber string `gorm:"uniqueIndex;not null" json:"phone_number"`
	Password    string `gorm:"not null" json:"-"`
}
