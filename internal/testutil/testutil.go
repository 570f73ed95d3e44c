// Package testutil 测试用的内存数据库与数据构造工具
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/m-hollow/NoirDB/internal/model"
	"github.com/m-hollow/NoirDB/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB 为当前测试创建独立的内存 SQLite 数据库并完成迁移
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repository.Migrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// NewTestRepos 创建基于内存数据库的仓库集合
func NewTestRepos(t *testing.T) *repository.Repositories {
	t.Helper()
	return repository.NewRepositories(NewTestDB(t))
}

// Movie 创建电影
func Movie(t *testing.T, repos *repository.Repositories, name string) *model.Movie {
	t.Helper()
	m := &model.Movie{Name: name}
	require.NoError(t, repos.Movie.Create(m))
	return m
}

// Person 创建影人
func Person(t *testing.T, repos *repository.Repositories, name string) *model.Person {
	t.Helper()
	p := &model.Person{Name: name}
	require.NoError(t, repos.Person.Create(p))
	return p
}

// User 创建用户
func User(t *testing.T, repos *repository.Repositories, username string) *model.User {
	t.Helper()
	u, err := repos.User.Create(username+"@example.com", username, "password123")
	require.NoError(t, err)
	return u
}

// Crew 为电影添加幕后人员
func Crew(t *testing.T, repos *repository.Repositories, person *model.Person, movie *model.Movie, title string) {
	t.Helper()
	job, err := repos.Credit.EnsureJob(title)
	require.NoError(t, err)
	require.NoError(t, repos.Credit.AddCrew(&model.Crew{PersonID: person.ID, MovieID: movie.ID, JobID: job.ID}))
}

// Cast 为电影添加演员
func Cast(t *testing.T, repos *repository.Repositories, person *model.Person, movie *model.Movie, role string, starring bool) {
	t.Helper()
	require.NoError(t, repos.Credit.AddCast(&model.Cast{PersonID: person.ID, MovieID: movie.ID, Role: role, Starring: starring}))
}

// Review 直接写入评论，不触发统计
func Review(t *testing.T, repos *repository.Repositories, user *model.User, movie *model.Movie, stars int, at time.Time) *model.Review {
	t.Helper()
	r := &model.Review{UserID: user.ID, MovieID: movie.ID, StarRating: stars, ReviewText: "noted", DateAdded: at}
	require.NoError(t, repos.Review.Create(r))
	return r
}
