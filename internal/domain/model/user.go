package model

type User struct {
	ID        int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Username  string `gorm:"type:varchar(100)" json:"username"`
	FirstName string `gorm:"not null;type:varchar(100)" json:"first_name"`
	LastName  string `gorm:"type:varchar(100)" json:"last_name"`
	IsAdmin   bool   `gorm:"not null;default:false" json:"is_admin"`
	BaseModel
}

// NameChanged 比對聊天平台上的最新名稱
func (u *User) NameChanged(username, firstName, lastName string) bool {
	return u.Username != username || u.FirstName != firstName || u.LastName != lastName
}
