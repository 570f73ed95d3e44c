package repository

import (
	"errors"

	"github.com/m-hollow/NoirDB/internal/model"
	"gorm.io/gorm"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// ReviewStats 某部电影的评论统计
type ReviewStats struct {
	Count int64
	Avg   *float64
}

// Create 创建评论
func (r *ReviewRepository) Create(review *model.Review) error {
	return r.db.Create(review).Error
}

// FindByID 根据 ID 查找评论
func (r *ReviewRepository) FindByID(id int) (*model.Review, error) {
	var review model.Review
	err := r.db.First(&review, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// FindByUserMovie 查找用户对某部电影的评论
func (r *ReviewRepository) FindByUserMovie(userID, movieID int) (*model.Review, error) {
	var review model.Review
	err := r.db.Where("user_id = ? AND movie_id = ?", userID, movieID).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// UpdateContent 更新评分与内容
func (r *ReviewRepository) UpdateContent(id, starRating int, text string) error {
	return r.db.Model(&model.Review{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"star_rating": starRating,
			"review_text": text,
		}).Error
}

// Delete 删除评论
func (r *ReviewRepository) Delete(id int) error {
	return r.db.Delete(&model.Review{}, id).Error
}

// ListByMovie 某部电影的评论，最新在前
func (r *ReviewRepository) ListByMovie(movieID int) ([]*model.Review, error) {
	var reviews []*model.Review
	err := r.db.Preload("User").
		Where("movie_id = ?", movieID).
		Order("date_added DESC").
		Order("id DESC").
		Find(&reviews).Error
	return reviews, err
}

// ListByUser 某用户的评论，最新在前
func (r *ReviewRepository) ListByUser(userID int) ([]*model.Review, error) {
	var reviews []*model.Review
	err := r.db.Preload("Movie").
		Where("user_id = ?", userID).
		Order("date_added DESC").
		Order("id DESC").
		Find(&reviews).Error
	return reviews, err
}

// StatsForMovie 统计评论数与平均分
func (r *ReviewRepository) StatsForMovie(movieID int) (ReviewStats, error) {
	var stats ReviewStats
	err := r.db.Model(&model.Review{}).
		Select("COUNT(*) AS count, AVG(star_rating) AS avg").
		Where("movie_id = ?", movieID).
		Scan(&stats).Error
	return stats, err
}
