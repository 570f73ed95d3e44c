package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Movie 电影
type Movie struct {
	ID          int    `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"size:150;not null;index"`
	DisplayName string `json:"display_name" gorm:"size:150"`
	Year        *int   `json:"year"`
	ReleaseDate string `json:"release_date" gorm:"size:200"`
	Studio      string `json:"studio" gorm:"size:100;default:''"`
	BasedOn     string `json:"based_on" gorm:"size:800;default:''"`
	Slug        string `json:"slug" gorm:"size:150;default:''"`
	PosterImage string `json:"poster_image" gorm:"size:255;default:''"`
	FilmSummary string `json:"film_summary" gorm:"type:text;default:''"`
	Rank        *int   `json:"rank"`

	// 由评论重新计算，无评论时为空
	NumReviews *int     `json:"num_reviews"`
	AvgRating  *float64 `json:"avg_rating"`
}

// BeforeSave 保存前由片名生成 slug 与展示名
func (m *Movie) BeforeSave(tx *gorm.DB) error {
	m.Slug = Slugify(m.Name)
	m.DisplayName = DeriveDisplayName(m.Name)
	return nil
}

// URL 电影详情页路径
func (m *Movie) URL() string {
	return fmt.Sprintf("/movies/%d-%s", m.ID, m.Slug)
}

// DailyMovie 每日推荐记录，任意时刻最多一条 active
type DailyMovie struct {
	ID         int       `json:"id" gorm:"primaryKey"`
	MovieID    int       `json:"movie_id" gorm:"not null;index"`
	Movie      *Movie    `json:"movie,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	DatePosted time.Time `json:"date_posted"`
	DailyCount int       `json:"daily_count"`
	Active     bool      `json:"active"`
}
