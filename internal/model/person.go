package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Person 影人（演员或幕后）
type Person struct {
	ID         int        `json:"id" gorm:"primaryKey"`
	Name       string     `json:"name" gorm:"size:150;not null;index"`
	DOB        *time.Time `json:"dob" gorm:"type:date"`
	DOD        *time.Time `json:"dod" gorm:"type:date"`
	Slug       string     `json:"slug" gorm:"size:150;default:''"`
	BioSummary string     `json:"bio_summary" gorm:"type:text;default:''"`
}

func (Person) TableName() string {
	return "people"
}

// BeforeSave 保存前根据姓名生成 slug
func (p *Person) BeforeSave(tx *gorm.DB) error {
	p.Slug = Slugify(p.Name)
	return nil
}

// URL 影人详情页路径
func (p *Person) URL() string {
	return fmt.Sprintf("/people/%d-%s", p.ID, p.Slug)
}
