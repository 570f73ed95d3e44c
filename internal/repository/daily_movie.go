package repository

import (
	"github.com/m-hollow/NoirDB/internal/model"
	"gorm.io/gorm"
)

type DailyMovieRepository struct {
	db *gorm.DB
}

func NewDailyMovieRepository(db *gorm.DB) *DailyMovieRepository {
	return &DailyMovieRepository{db: db}
}

// FindActive 当前 active 的每日推荐，不存在返回 nil
func (r *DailyMovieRepository) FindActive() (*model.DailyMovie, error) {
	var rows []*model.DailyMovie
	err := r.db.Preload("Movie").
		Where("active = ?", true).
		Order("id DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Deactivate 条件更新：仅当该记录仍为 active 时置为 false，返回受影响行数
func (r *DailyMovieRepository) Deactivate(id int) (int64, error) {
	result := r.db.Model(&model.DailyMovie{}).
		Where("id = ? AND active = ?", id, true).
		UpdateColumn("active", false)
	return result.RowsAffected, result.Error
}

// Create 写入新的每日推荐
func (r *DailyMovieRepository) Create(d *model.DailyMovie) error {
	return r.db.Omit("Movie").Create(d).Error
}

// History 最近的推荐记录，最新在前
func (r *DailyMovieRepository) History(limit int) ([]*model.DailyMovie, error) {
	var rows []*model.DailyMovie
	err := r.db.Preload("Movie").
		Order("date_posted DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
