package repository

import (
	"errors"
	"strings"

	"github.com/m-hollow/NoirDB/internal/model"
	"gorm.io/gorm"
)

type PersonRepository struct {
	db *gorm.DB
}

func NewPersonRepository(db *gorm.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

// Create 创建影人
func (r *PersonRepository) Create(p *model.Person) error {
	return r.db.Create(p).Error
}

// FindByID 根据 ID 查找影人
func (r *PersonRepository) FindByID(id int) (*model.Person, error) {
	var p model.Person
	err := r.db.First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByName 按姓名精确查找
func (r *PersonRepository) FindByName(name string) (*model.Person, error) {
	var p model.Person
	err := r.db.Where("name = ?", name).Order("id").First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SearchByName 姓名模糊搜索（不区分大小写），按姓名排序
func (r *PersonRepository) SearchByName(q string) ([]*model.Person, error) {
	var people []*model.Person
	err := r.db.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(q)).
		Order("name ASC").
		Find(&people).Error
	return people, err
}

// List 分页列出影人
func (r *PersonRepository) List(limit, offset int) ([]*model.Person, error) {
	var people []*model.Person
	err := r.db.Order("name ASC").Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&people).Error
	return people, err
}

// Count 影人总数
func (r *PersonRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Person{}).Count(&count).Error
	return count, err
}

// likeEscaper 转义 LIKE 通配符，配合 ESCAPE '\' 使用
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likePattern 构造小写的包含匹配模式
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
}
