package repository

import (
	"errors"
	"fmt"

	"github.com/m-hollow/NoirDB/internal/model"
	"gorm.io/gorm"
)

// 用户电影状态字段
const (
	FlagSeen      = "seen"
	FlagFavorite  = "favorite"
	FlagWatchList = "watch_list"
)

type UserMovieRepository struct {
	db *gorm.DB
}

func NewUserMovieRepository(db *gorm.DB) *UserMovieRepository {
	return &UserMovieRepository{db: db}
}

// Find 查找用户与电影的状态记录
func (r *UserMovieRepository) Find(userID, movieID int) (*model.UserMovieLink, error) {
	var link model.UserMovieLink
	err := r.db.Where("user_id = ? AND movie_id = ?", userID, movieID).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// Create 创建状态记录
func (r *UserMovieRepository) Create(link *model.UserMovieLink) error {
	return r.db.Create(link).Error
}

// SaveFlags 写回三个状态字段
func (r *UserMovieRepository) SaveFlags(link *model.UserMovieLink) error {
	return r.db.Model(&model.UserMovieLink{}).
		Where("id = ?", link.ID).
		UpdateColumns(map[string]interface{}{
			"seen":       link.Seen,
			"favorite":   link.Favorite,
			"watch_list": link.WatchList,
		}).Error
}

// ListByFlag 列出用户某个状态为真的记录，按片名排序
func (r *UserMovieRepository) ListByFlag(userID int, flag string) ([]*model.UserMovieLink, error) {
	switch flag {
	case FlagSeen, FlagFavorite, FlagWatchList:
	default:
		return nil, fmt.Errorf("unknown flag %q", flag)
	}

	var links []*model.UserMovieLink
	err := r.db.Select("user_movie_links.*").
		Joins("JOIN movies ON movies.id = user_movie_links.movie_id").
		Preload("Movie").
		Where("user_movie_links.user_id = ?", userID).
		Where("user_movie_links."+flag+" = ?", true).
		Order("movies.name ASC").
		Find(&links).Error
	return links, err
}
