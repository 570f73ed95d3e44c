package service

import (
	"fmt"
	"math"
	"time"

	"github.com/m-hollow/NoirDB/internal/logging"
	"github.com/m-hollow/NoirDB/internal/model"
	"github.com/m-hollow/NoirDB/internal/repository"
	"github.com/rs/zerolog"
)

// ReviewInput 写评论 / 改评论的输入
type ReviewInput struct {
	StarRating int    `json:"star_rating" form:"star_rating" validate:"required,min=1,max=5"`
	ReviewText string `json:"review_text" form:"review_text" validate:"max=2000"`
}

// ReviewService 评论写入，以及随之进行的电影统计与用户状态同步
type ReviewService struct {
	repos *repository.Repositories
	now   func() time.Time
	log   zerolog.Logger
}

// NewReviewService 创建评论服务
func NewReviewService(repos *repository.Repositories) *ReviewService {
	return &ReviewService{
		repos: repos,
		now:   time.Now,
		log:   logging.Component("review"),
	}
}

// WriteReview 用户为电影写评论
func (s *ReviewService) WriteReview(userID, movieID int, in ReviewInput) (*model.Review, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	review := &model.Review{
		UserID:     userID,
		MovieID:    movieID,
		StarRating: in.StarRating,
		ReviewText: in.ReviewText,
		DateAdded:  s.now(),
	}

	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		if err := requireActiveUser(tx, userID); err != nil {
			return err
		}
		movie, err := tx.Movie.FindByID(movieID)
		if err != nil {
			return fmt.Errorf("load movie %d: %w", movieID, err)
		}
		if movie == nil {
			return fmt.Errorf("movie %d: %w", movieID, ErrNotFound)
		}

		existing, err := tx.Review.FindByUserMovie(userID, movieID)
		if err != nil {
			return fmt.Errorf("check existing review: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("review by user %d for movie %d: %w", userID, movieID, ErrDuplicate)
		}

		if err := tx.Review.Create(review); err != nil {
			if repository.IsDuplicate(err) {
				return fmt.Errorf("review by user %d for movie %d: %w", userID, movieID, ErrDuplicate)
			}
			return fmt.Errorf("create review: %w", err)
		}

		if err := recomputeMovieStats(tx, movieID); err != nil {
			return err
		}
		return syncLinkAfterReview(tx, userID, movieID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int("user_id", userID).Int("movie_id", movieID).Int("stars", in.StarRating).Msg("review written")
	return review, nil
}

// UpdateReview 作者修改自己的评论
func (s *ReviewService) UpdateReview(userID, reviewID int, in ReviewInput) (*model.Review, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var review *model.Review
	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		var err error
		review, err = ownedReview(tx, userID, reviewID)
		if err != nil {
			return err
		}

		if err := tx.Review.UpdateContent(review.ID, in.StarRating, in.ReviewText); err != nil {
			return fmt.Errorf("update review %d: %w", reviewID, err)
		}
		review.StarRating = in.StarRating
		review.ReviewText = in.ReviewText

		if err := recomputeMovieStats(tx, review.MovieID); err != nil {
			return err
		}
		return syncLinkAfterReview(tx, userID, review.MovieID)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// DeleteReview 作者删除自己的评论，不改变用户的看过状态
func (s *ReviewService) DeleteReview(userID, reviewID int) error {
	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		review, err := ownedReview(tx, userID, reviewID)
		if err != nil {
			return err
		}
		if err := tx.Review.Delete(review.ID); err != nil {
			return fmt.Errorf("delete review %d: %w", reviewID, err)
		}
		return recomputeMovieStats(tx, review.MovieID)
	})
	if err != nil {
		return err
	}

	s.log.Info().Int("user_id", userID).Int("review_id", reviewID).Msg("review deleted")
	return nil
}

// RecomputeMovieStats 根据现有评论重算电影的评论数与平均分
func (s *ReviewService) RecomputeMovieStats(movieID int) error {
	return recomputeMovieStats(s.repos, movieID)
}

// SyncLinkAfterReview 确保用户对该电影的状态为看过
func (s *ReviewService) SyncLinkAfterReview(userID, movieID int) error {
	return syncLinkAfterReview(s.repos, userID, movieID)
}

func ownedReview(repos *repository.Repositories, userID, reviewID int) (*model.Review, error) {
	review, err := repos.Review.FindByID(reviewID)
	if err != nil {
		return nil, fmt.Errorf("load review %d: %w", reviewID, err)
	}
	if review == nil {
		return nil, fmt.Errorf("review %d: %w", reviewID, ErrNotFound)
	}
	if review.UserID != userID {
		return nil, fmt.Errorf("review %d: %w", reviewID, ErrForbidden)
	}
	if err := requireActiveUser(repos, userID); err != nil {
		return nil, err
	}
	return review, nil
}

func recomputeMovieStats(repos *repository.Repositories, movieID int) error {
	stats, err := repos.Review.StatsForMovie(movieID)
	if err != nil {
		return fmt.Errorf("review stats for movie %d: %w", movieID, err)
	}

	var numReviews *int
	var avgRating *float64
	if stats.Count > 0 && stats.Avg != nil {
		n := int(stats.Count)
		avg := math.RoundToEven(*stats.Avg*10) / 10
		numReviews, avgRating = &n, &avg
	}

	if err := repos.Movie.UpdateStats(movieID, numReviews, avgRating); err != nil {
		return fmt.Errorf("update stats for movie %d: %w", movieID, err)
	}
	return nil
}

func syncLinkAfterReview(repos *repository.Repositories, userID, movieID int) error {
	link, err := repos.UserMovie.Find(userID, movieID)
	if err != nil {
		return fmt.Errorf("load link: %w", err)
	}

	if link == nil {
		link = &model.UserMovieLink{UserID: userID, MovieID: movieID, Seen: true}
		if err := repos.UserMovie.Create(link); err != nil {
			return fmt.Errorf("create link: %w", err)
		}
		return nil
	}

	if link.Seen {
		return nil
	}
	link.Seen = true
	if err := repos.UserMovie.SaveFlags(link); err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	return nil
}
