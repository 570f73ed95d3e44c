package service

import (
	"fmt"

	"github.com/m-hollow/NoirDB/internal/model"
	"github.com/m-hollow/NoirDB/internal/repository"
)

// LinkService 用户对电影的看过 / 喜爱 / 想看状态
type LinkService struct {
	repos *repository.Repositories
}

// NewLinkService 创建状态服务
func NewLinkService(repos *repository.Repositories) *LinkService {
	return &LinkService{repos: repos}
}

// ApplyLinkAction 执行状态操作，记录不存在时先创建
func (s *LinkService) ApplyLinkAction(userID, movieID int, action model.LinkAction) (*model.UserMovieLink, error) {
	if err := requireActiveUser(s.repos, userID); err != nil {
		return nil, err
	}
	movie, err := s.repos.Movie.FindByID(movieID)
	if err != nil {
		return nil, fmt.Errorf("load movie %d: %w", movieID, err)
	}
	if movie == nil {
		return nil, fmt.Errorf("movie %d: %w", movieID, ErrNotFound)
	}

	link, err := s.repos.UserMovie.Find(userID, movieID)
	if err != nil {
		return nil, fmt.Errorf("load link: %w", err)
	}

	if link == nil {
		link = &model.UserMovieLink{UserID: userID, MovieID: movieID}
		if err := action.Apply(link); err != nil {
			return nil, err
		}
		err = s.repos.UserMovie.Create(link)
		if err == nil {
			return link, nil
		}
		if !repository.IsDuplicate(err) {
			return nil, fmt.Errorf("create link: %w", err)
		}

		// 并发请求已创建记录，重新读取后再应用
		link, err = s.repos.UserMovie.Find(userID, movieID)
		if err != nil {
			return nil, fmt.Errorf("reload link: %w", err)
		}
		if link == nil {
			return nil, fmt.Errorf("link for movie %d: %w", movieID, ErrNotFound)
		}
	}

	if err := action.Apply(link); err != nil {
		return nil, err
	}
	if err := s.repos.UserMovie.SaveFlags(link); err != nil {
		return nil, fmt.Errorf("save link: %w", err)
	}
	return link, nil
}
