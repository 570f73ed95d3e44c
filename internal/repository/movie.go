package repository

import (
	"errors"

	"github.com/m-hollow/NoirDB/internal/model"
	"gorm.io/gorm"
)

type MovieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// Create 创建电影
func (r *MovieRepository) Create(m *model.Movie) error {
	return r.db.Create(m).Error
}

// FindByID 根据 ID 查找电影
func (r *MovieRepository) FindByID(id int) (*model.Movie, error) {
	var m model.Movie
	err := r.db.First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByName 按片名精确查找
func (r *MovieRepository) FindByName(name string) (*model.Movie, error) {
	var m model.Movie
	err := r.db.Where("name = ?", name).Order("id").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Count 电影总数
func (r *MovieRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Movie{}).Count(&count).Error
	return count, err
}

// List 按片名分页列出电影
func (r *MovieRepository) List(limit, offset int) ([]*model.Movie, error) {
	var movies []*model.Movie
	err := r.db.Order("name ASC").Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&movies).Error
	return movies, err
}

// ListAll 按片名列出全部电影
func (r *MovieRepository) ListAll() ([]*model.Movie, error) {
	var movies []*model.Movie
	err := r.db.Order("name ASC").Order("id ASC").Find(&movies).Error
	return movies, err
}

// FindByOffset 按 ID 顺序取第 offset 部电影，不存在返回 nil
func (r *MovieRepository) FindByOffset(offset int) (*model.Movie, error) {
	var movies []*model.Movie
	err := r.db.Order("id ASC").Limit(1).Offset(offset).Find(&movies).Error
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		return nil, nil
	}
	return movies[0], nil
}

// NextAfter 按 ID 顺序取下一部电影，到末尾后回到第一部
func (r *MovieRepository) NextAfter(id int) (*model.Movie, error) {
	var movies []*model.Movie
	err := r.db.Where("id > ?", id).Order("id ASC").Limit(1).Find(&movies).Error
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		err = r.db.Order("id ASC").Limit(1).Find(&movies).Error
		if err != nil {
			return nil, err
		}
	}
	if len(movies) == 0 {
		return nil, nil
	}
	return movies[0], nil
}

// SearchByName 片名模糊搜索（不区分大小写）
func (r *MovieRepository) SearchByName(q string) ([]*model.Movie, error) {
	var movies []*model.Movie
	err := r.db.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(q)).
		Order("name ASC").
		Find(&movies).Error
	return movies, err
}

// SearchByDisplayName 展示名模糊搜索，用于自动补全
func (r *MovieRepository) SearchByDisplayName(q string) ([]*model.Movie, error) {
	var movies []*model.Movie
	err := r.db.Where(`LOWER(display_name) LIKE ? ESCAPE '\'`, likePattern(q)).
		Order("display_name ASC").
		Find(&movies).Error
	return movies, err
}

// freeMovieIDs 至少有一个免费链接的电影 ID 子查询
func (r *MovieRepository) freeMovieIDs() *gorm.DB {
	return r.db.Model(&model.MediaLink{}).Select("movie_id").Where("free = ?", true)
}

// ListFree 列出有免费观看链接的电影（去重，按片名）
func (r *MovieRepository) ListFree() ([]*model.Movie, error) {
	var movies []*model.Movie
	err := r.db.Where("id IN (?)", r.freeMovieIDs()).
		Order("name ASC").
		Find(&movies).Error
	return movies, err
}

// CountFree 有免费观看链接的电影数量
func (r *MovieRepository) CountFree() (int64, error) {
	var count int64
	err := r.db.Model(&model.Movie{}).Where("id IN (?)", r.freeMovieIDs()).Count(&count).Error
	return count, err
}

// ListUnseenByUser 用户既没看过也没加入想看的电影
func (r *MovieRepository) ListUnseenByUser(userID int) ([]*model.Movie, error) {
	excluded := r.db.Model(&model.UserMovieLink{}).
		Select("movie_id").
		Where("user_id = ? AND (seen = ? OR watch_list = ?)", userID, true, true)

	var movies []*model.Movie
	err := r.db.Where("id NOT IN (?)", excluded).Order("id ASC").Find(&movies).Error
	return movies, err
}

// UpdateStats 写入评论统计，nil 表示清空
func (r *MovieRepository) UpdateStats(id int, numReviews *int, avgRating *float64) error {
	return r.db.Model(&model.Movie{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"num_reviews": numReviews,
			"avg_rating":  avgRating,
		}).Error
}
