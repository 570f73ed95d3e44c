package repository

import (
	"github.com/m-hollow/NoirDB/internal/model"
	"gorm.io/gorm"
)

type MediaLinkRepository struct {
	db *gorm.DB
}

func NewMediaLinkRepository(db *gorm.DB) *MediaLinkRepository {
	return &MediaLinkRepository{db: db}
}

// Create 添加观看链接
func (r *MediaLinkRepository) Create(link *model.MediaLink) error {
	return r.db.Create(link).Error
}

// ListByMovie 某部电影的全部链接，免费优先
func (r *MediaLinkRepository) ListByMovie(movieID int) ([]*model.MediaLink, error) {
	var links []*model.MediaLink
	err := r.db.Where("movie_id = ?", movieID).
		Order("free DESC").
		Order("id ASC").
		Find(&links).Error
	return links, err
}
