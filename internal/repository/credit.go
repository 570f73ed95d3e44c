package repository

import (
	"errors"

	"github.com/m-hollow/NoirDB/internal/model"
	"gorm.io/gorm"
)

// CreditRepository 演职员关联（cast_credits / crew_credits / jobs）
type CreditRepository struct {
	db *gorm.DB
}

func NewCreditRepository(db *gorm.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

// EnsureJob 获取职位，不存在则创建
func (r *CreditRepository) EnsureJob(title string) (*model.Job, error) {
	job := model.Job{JobTitle: title}
	err := r.db.Where(model.Job{JobTitle: title}).FirstOrCreate(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// FindJob 按名称查找职位
func (r *CreditRepository) FindJob(title string) (*model.Job, error) {
	var job model.Job
	err := r.db.Where("job_title = ?", title).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// AddCast 添加演员记录
func (r *CreditRepository) AddCast(c *model.Cast) error {
	return r.db.Create(c).Error
}

// AddCrew 添加幕后记录
func (r *CreditRepository) AddCrew(c *model.Crew) error {
	return r.db.Create(c).Error
}

// CastForMovie 某部电影的全部演员，按演员姓名排序
func (r *CreditRepository) CastForMovie(movieID int) ([]*model.Cast, error) {
	var cast []*model.Cast
	err := r.db.Select("cast_credits.*").
		Joins("JOIN people ON people.id = cast_credits.person_id").
		Preload("Person").
		Where("cast_credits.movie_id = ?", movieID).
		Order("people.name ASC").
		Find(&cast).Error
	return cast, err
}

// CrewByJob 某部电影指定职位的人员，按姓名排序
func (r *CreditRepository) CrewByJob(movieID int, title string) ([]*model.Person, error) {
	var people []*model.Person
	err := r.db.Select("people.*").
		Joins("JOIN crew_credits ON crew_credits.person_id = people.id").
		Joins("JOIN jobs ON jobs.id = crew_credits.job_id").
		Where("crew_credits.movie_id = ? AND jobs.job_title = ?", movieID, title).
		Order("people.name ASC").
		Find(&people).Error
	return people, err
}

// MoviesByCrew 某人以指定职位参与的电影
func (r *CreditRepository) MoviesByCrew(personID int, title string) ([]*model.Movie, error) {
	var movies []*model.Movie
	err := r.db.Select("movies.*").
		Joins("JOIN crew_credits ON crew_credits.movie_id = movies.id").
		Joins("JOIN jobs ON jobs.id = crew_credits.job_id").
		Where("crew_credits.person_id = ? AND jobs.job_title = ?", personID, title).
		Order("movies.id ASC").
		Find(&movies).Error
	return movies, err
}

// CastForPerson 某人出演的角色，按片名排序
func (r *CreditRepository) CastForPerson(personID int) ([]*model.Cast, error) {
	var cast []*model.Cast
	err := r.db.Select("cast_credits.*").
		Joins("JOIN movies ON movies.id = cast_credits.movie_id").
		Preload("Movie").
		Where("cast_credits.person_id = ?", personID).
		Order("movies.name ASC").
		Order("cast_credits.id ASC").
		Find(&cast).Error
	return cast, err
}

// CrewForPerson 某人担任的幕后职位，按片名排序
func (r *CreditRepository) CrewForPerson(personID int) ([]*model.Crew, error) {
	var crew []*model.Crew
	err := r.db.Select("crew_credits.*").
		Joins("JOIN movies ON movies.id = crew_credits.movie_id").
		Preload("Movie").
		Preload("Job").
		Where("crew_credits.person_id = ?", personID).
		Order("movies.name ASC").
		Order("crew_credits.id ASC").
		Find(&crew).Error
	return crew, err
}

// MarkStarring 将某人的全部角色标记为主演
func (r *CreditRepository) MarkStarring(personID int) (int64, error) {
	result := r.db.Model(&model.Cast{}).
		Where("person_id = ?", personID).
		UpdateColumn("starring", true)
	return result.RowsAffected, result.Error
}
