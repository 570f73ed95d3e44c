package model

// 职位名称
const (
	JobDirector        = "Director"
	JobProducer        = "Producer"
	JobCinematographer = "Cinematographer"
	JobWriter          = "Writer"
	JobComposer        = "Composer"
)

// JobTitles 全部职位，导入时按此顺序创建
var JobTitles = []string{JobDirector, JobProducer, JobCinematographer, JobWriter, JobComposer}

// Job 幕后职位
type Job struct {
	ID       int    `json:"id" gorm:"primaryKey"`
	JobTitle string `json:"job_title" gorm:"size:100;not null;uniqueIndex"`
}

// Cast 演员在某部电影中的角色
type Cast struct {
	ID       int     `json:"id" gorm:"primaryKey"`
	PersonID int     `json:"person_id" gorm:"not null;index"`
	Person   *Person `json:"person,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	MovieID  int     `json:"movie_id" gorm:"not null;index"`
	Movie    *Movie  `json:"movie,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Role     string  `json:"role" gorm:"size:200;default:''"`
	Starring bool    `json:"starring"`
}

func (Cast) TableName() string {
	return "cast_credits"
}

// Crew 幕后人员在某部电影中的职位
type Crew struct {
	ID       int     `json:"id" gorm:"primaryKey"`
	PersonID int     `json:"person_id" gorm:"not null;index"`
	Person   *Person `json:"person,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	MovieID  int     `json:"movie_id" gorm:"not null;index"`
	Movie    *Movie  `json:"movie,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	JobID    int     `json:"job_id" gorm:"not null;index"`
	Job      *Job    `json:"job,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

func (Crew) TableName() string {
	return "crew_credits"
}
