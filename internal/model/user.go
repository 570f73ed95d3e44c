package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// User 用户模型
type User struct {
	ID                int       `json:"id" gorm:"primaryKey"`
	Email             string    `json:"email" gorm:"size:254;not null;uniqueIndex"`
	Username          string    `json:"username" gorm:"size:150;not null;uniqueIndex"`
	PasswordHash      string    `json:"-"`
	Role              string    `json:"role" gorm:"size:20;default:'user'"`
	Slug              string    `json:"slug" gorm:"size:200;default:''"`
	IsActive          bool      `json:"is_active" gorm:"default:true"`
	NumMoviesRated    *int      `json:"num_movies_rated"`
	NumMoviesReviewed *int      `json:"num_movies_reviewed"`
	CreatedAt         time.Time `json:"created_at"`
}

// BeforeSave 保存前根据用户名生成 slug
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Slug = Slugify(u.Username)
	return nil
}

// URL 用户主页路径
func (u *User) URL() string {
	return fmt.Sprintf("/users/%d-%s", u.ID, u.Slug)
}

// SessionUser 专门用于 Session 存储的用户信息结构
type SessionUser struct {
	ID       int
	Email    string
	Username string
	Role     string
}
