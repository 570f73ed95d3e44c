package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/m-hollow/NoirDB/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB 初始化数据库连接
func InitDB(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层连接失败: %w", err)
	}

	// 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return db, nil
}

// Migrate 同步表结构
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Person{},
		&model.Movie{},
		&model.Job{},
		&model.Cast{},
		&model.Crew{},
		&model.Review{},
		&model.UserMovieLink{},
		&model.MediaLink{},
		&model.DailyMovie{},
	)
	if err != nil {
		return fmt.Errorf("自动迁移失败: %w", err)
	}

	// 部分唯一索引：daily_movies 中最多一条 active 记录
	err = db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_daily_movie_one_active ON daily_movies (active) WHERE active").Error
	if err != nil {
		return fmt.Errorf("创建每日推荐唯一索引失败: %w", err)
	}
	return nil
}

// IsDuplicate 判断是否违反唯一约束
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// Repositories 仓库集合
type Repositories struct {
	DB         *gorm.DB
	User       *UserRepository
	Person     *PersonRepository
	Movie      *MovieRepository
	Credit     *CreditRepository
	Review     *ReviewRepository
	UserMovie  *UserMovieRepository
	MediaLink  *MediaLinkRepository
	DailyMovie *DailyMovieRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:         db,
		User:       NewUserRepository(db),
		Person:     NewPersonRepository(db),
		Movie:      NewMovieRepository(db),
		Credit:     NewCreditRepository(db),
		Review:     NewReviewRepository(db),
		UserMovie:  NewUserMovieRepository(db),
		MediaLink:  NewMediaLinkRepository(db),
		DailyMovie: NewDailyMovieRepository(db),
	}
}

// Transaction 在事务中执行 fn，fn 收到绑定到该事务的仓库集合
func (r *Repositories) Transaction(fn func(tx *Repositories) error) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
