package service

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/m-hollow/NoirDB/internal/logging"
	"github.com/m-hollow/NoirDB/internal/model"
	"github.com/m-hollow/NoirDB/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// errRotationConflict 另一个请求已完成轮换
var errRotationConflict = errors.New("daily pick rotated concurrently")

// DailyPickService 每日推荐：读取时检查是否到期，到期则轮换到另一部电影
type DailyPickService struct {
	repos       *repository.Repositories
	interval    time.Duration
	maxAttempts int
	now         func() time.Time
	intn        func(n int) int
	sf          singleflight.Group // 同一进程内的并发轮换只执行一次
	log         zerolog.Logger
}

// NewDailyPickService 创建每日推荐服务
func NewDailyPickService(repos *repository.Repositories, interval time.Duration, maxAttempts int) *DailyPickService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &DailyPickService{
		repos:       repos,
		interval:    interval,
		maxAttempts: maxAttempts,
		now:         time.Now,
		intn:        rand.IntN,
		log:         logging.Component("daily_pick"),
	}
}

// Current 返回当前的每日推荐，必要时先完成轮换
func (s *DailyPickService) Current() (*model.DailyMovie, error) {
	// 先快速检查，未到期时不进入 singleflight
	current, err := s.repos.DailyMovie.FindActive()
	if err != nil {
		return nil, fmt.Errorf("load daily pick: %w", err)
	}
	if current != nil && !s.expired(current) {
		return current, nil
	}

	v, err, _ := s.sf.Do("rotate", func() (interface{}, error) {
		return s.rotate()
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.DailyMovie), nil
}

func (s *DailyPickService) expired(d *model.DailyMovie) bool {
	return s.now().Sub(d.DatePosted) >= s.interval
}

func (s *DailyPickService) rotate() (*model.DailyMovie, error) {
	// 等待期间可能已被其他请求轮换，再检查一次
	current, err := s.repos.DailyMovie.FindActive()
	if err != nil {
		return nil, fmt.Errorf("load daily pick: %w", err)
	}
	if current == nil {
		return s.bootstrap()
	}
	if !s.expired(current) {
		return current, nil
	}

	next, err := s.drawDifferent(current.MovieID)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return current, nil
	}
	return s.commitRotation(current, next)
}

// bootstrap 还没有任何推荐时随机选出第一部
func (s *DailyPickService) bootstrap() (*model.DailyMovie, error) {
	count, err := s.repos.Movie.Count()
	if err != nil {
		return nil, fmt.Errorf("count movies: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("daily pick: no movies: %w", ErrNotFound)
	}

	movie, err := s.repos.Movie.FindByOffset(s.intn(int(count)))
	if err != nil {
		return nil, fmt.Errorf("draw movie: %w", err)
	}
	if movie == nil {
		return nil, fmt.Errorf("daily pick: draw out of range: %w", ErrNotFound)
	}

	row := &model.DailyMovie{
		MovieID:    movie.ID,
		DatePosted: s.now(),
		DailyCount: 1,
		Active:     true,
	}
	if err := s.repos.DailyMovie.Create(row); err != nil {
		if repository.IsDuplicate(err) {
			return s.reloadActive()
		}
		return nil, fmt.Errorf("create daily pick: %w", err)
	}
	row.Movie = movie

	s.log.Info().Int("movie_id", movie.ID).Msg("daily pick initialised")
	return row, nil
}

// drawDifferent 随机抽取一部与当前不同的电影
// 超过最大次数后按 ID 顺序取下一部；返回 nil 表示保持当前推荐
func (s *DailyPickService) drawDifferent(currentID int) (*model.Movie, error) {
	count, err := s.repos.Movie.Count()
	if err != nil {
		return nil, fmt.Errorf("count movies: %w", err)
	}
	if count <= 1 {
		return nil, nil
	}

	for i := 0; i < s.maxAttempts; i++ {
		movie, err := s.repos.Movie.FindByOffset(s.intn(int(count)))
		if err != nil {
			return nil, fmt.Errorf("draw movie: %w", err)
		}
		if movie == nil {
			// 计数与抽取之间有电影被删除
			s.log.Warn().Int64("count", count).Msg("daily pick draw out of range, keeping current pick")
			return nil, nil
		}
		if movie.ID != currentID {
			return movie, nil
		}
	}

	next, err := s.repos.Movie.NextAfter(currentID)
	if err != nil {
		return nil, fmt.Errorf("fallback movie: %w", err)
	}
	if next == nil || next.ID == currentID {
		return nil, nil
	}
	s.log.Debug().Int("attempts", s.maxAttempts).Int("movie_id", next.ID).Msg("daily pick fell back to next movie")
	return next, nil
}

// commitRotation 在一个事务中停用旧推荐并写入新推荐
// 旧记录已被其他请求停用时回滚，并返回当前 active 的记录
func (s *DailyPickService) commitRotation(prev *model.DailyMovie, next *model.Movie) (*model.DailyMovie, error) {
	row := &model.DailyMovie{
		MovieID:    next.ID,
		DatePosted: s.now(),
		DailyCount: prev.DailyCount + 1,
		Active:     true,
	}

	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		n, err := tx.DailyMovie.Deactivate(prev.ID)
		if err != nil {
			return fmt.Errorf("deactivate daily pick %d: %w", prev.ID, err)
		}
		if n != 1 {
			return errRotationConflict
		}
		if err := tx.DailyMovie.Create(row); err != nil {
			if repository.IsDuplicate(err) {
				return errRotationConflict
			}
			return fmt.Errorf("create daily pick: %w", err)
		}
		return nil
	})
	if errors.Is(err, errRotationConflict) {
		s.log.Info().Int("previous_id", prev.ID).Msg("daily pick already rotated elsewhere")
		return s.reloadActive()
	}
	if err != nil {
		return nil, err
	}

	row.Movie = next
	s.log.Info().
		Int("movie_id", next.ID).
		Int("previous_movie_id", prev.MovieID).
		Int("daily_count", row.DailyCount).
		Msg("daily pick rotated")
	return row, nil
}

func (s *DailyPickService) reloadActive() (*model.DailyMovie, error) {
	current, err := s.repos.DailyMovie.FindActive()
	if err != nil {
		return nil, fmt.Errorf("reload daily pick: %w", err)
	}
	if current == nil {
		return nil, fmt.Errorf("daily pick vanished during rotation: %w", ErrNotFound)
	}
	return current, nil
}

// History 最近的推荐记录
func (s *DailyPickService) History(limit int) ([]*model.DailyMovie, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	return s.repos.DailyMovie.History(limit)
}
