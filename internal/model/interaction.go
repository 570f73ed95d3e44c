package model

import (
	"errors"
	"time"
)

// Review 用户影评，每个用户对每部电影最多一条
type Review struct {
	ID         int       `json:"id" gorm:"primaryKey"`
	UserID     int       `json:"user_id" gorm:"not null;uniqueIndex:idx_review_user_movie"`
	User       *User     `json:"user,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	MovieID    int       `json:"movie_id" gorm:"not null;uniqueIndex:idx_review_user_movie;index"`
	Movie      *Movie    `json:"movie,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	StarRating int       `json:"star_rating" gorm:"not null;default:3"`
	ReviewText string    `json:"review_text" gorm:"type:text;default:''"`
	DateAdded  time.Time `json:"date_added" gorm:"index"`
}

// EmptyStars 剩余空星数量
func (r *Review) EmptyStars() int {
	return 5 - r.StarRating
}

// UserMovieLink 用户与电影的看过/喜爱/想看状态
type UserMovieLink struct {
	ID        int    `json:"id" gorm:"primaryKey"`
	UserID    int    `json:"user_id" gorm:"not null;uniqueIndex:idx_uml_user_movie"`
	User      *User  `json:"user,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	MovieID   int    `json:"movie_id" gorm:"not null;uniqueIndex:idx_uml_user_movie"`
	Movie     *Movie `json:"movie,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Seen      bool   `json:"seen"`
	Favorite  bool   `json:"favorite"`
	WatchList bool   `json:"watch_list"`
}

// MediaLink 电影的在线观看链接
type MediaLink struct {
	ID      int    `json:"id" gorm:"primaryKey"`
	MovieID int    `json:"movie_id" gorm:"not null;uniqueIndex:idx_media_movie_url"`
	Movie   *Movie `json:"movie,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	URL     string `json:"url" gorm:"column:url_link;size:800;not null;uniqueIndex:idx_media_movie_url"`
	Host    string `json:"host" gorm:"size:200;default:''"`
	Free    bool   `json:"free"`
	Active  bool   `json:"active"`
}

// LinkAction 用户对电影状态的操作
type LinkAction int

const (
	MarkSeen LinkAction = iota + 1
	UnmarkSeen
	MarkFavorite
	UnmarkFavorite
	MarkWatchList
	UnmarkWatchList
)

// ErrUnknownAction 无法识别的操作
var ErrUnknownAction = errors.New("unknown link action")

var linkActionNames = map[LinkAction]string{
	MarkSeen:        "mark_seen",
	UnmarkSeen:      "unmark_seen",
	MarkFavorite:    "mark_favorite",
	UnmarkFavorite:  "unmark_favorite",
	MarkWatchList:   "mark_watch_list",
	UnmarkWatchList: "unmark_watch_list",
}

// ParseLinkAction 解析 URL 中的操作名
func ParseLinkAction(s string) (LinkAction, error) {
	for action, name := range linkActionNames {
		if name == s {
			return action, nil
		}
	}
	return 0, ErrUnknownAction
}

func (a LinkAction) String() string {
	if name, ok := linkActionNames[a]; ok {
		return name
	}
	return "unknown"
}

// Apply 对状态执行操作
// 喜爱的电影一定是看过的：标记喜爱会同时标记看过，取消看过会同时取消喜爱
func (a LinkAction) Apply(l *UserMovieLink) error {
	switch a {
	case MarkSeen:
		l.Seen = true
	case UnmarkSeen:
		l.Seen = false
		l.Favorite = false
	case MarkFavorite:
		l.Favorite = true
		l.Seen = true
	case UnmarkFavorite:
		l.Favorite = false
	case MarkWatchList:
		l.WatchList = true
	case UnmarkWatchList:
		l.WatchList = false
	default:
		return ErrUnknownAction
	}
	return nil
}
