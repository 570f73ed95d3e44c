package service

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/m-hollow/NoirDB/internal/model"
	"github.com/m-hollow/NoirDB/internal/repository"
)

const (
	// ListPageSize 电影 / 影人列表每页数量
	ListPageSize = 30
	// RelatedLimit 同导演相关电影数量上限
	RelatedLimit = 3
	// RecommendationSize 推荐数量
	RecommendationSize = 3
)

// CatalogService 电影、影人、用户页面的关联查询
type CatalogService struct {
	repos *repository.Repositories
	intn  func(n int) int
}

// NewCatalogService 创建查询服务
func NewCatalogService(repos *repository.Repositories) *CatalogService {
	return &CatalogService{repos: repos, intn: rand.IntN}
}

// Page 分页结果
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// newPage 校验页码并计算 offset；超出范围返回 ErrNotFound
func newPage[T any](page, size int, total int64) (Page[T], int, error) {
	if page < 1 {
		page = 1
	}
	totalPages := int((total + int64(size) - 1) / int64(size))
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		return Page[T]{}, 0, fmt.Errorf("page %d of %d: %w", page, totalPages, ErrNotFound)
	}
	return Page[T]{Page: page, PageSize: size, Total: total, TotalPages: totalPages, Items: []T{}}, (page - 1) * size, nil
}

// CrewGroups 按职位分组的幕后人员
type CrewGroups struct {
	Director        *model.Person   `json:"director"`
	Cinematographer *model.Person   `json:"cinematographer"`
	Composer        *model.Person   `json:"composer"`
	Producers       []*model.Person `json:"producers"`
	Writers         []*model.Person `json:"writers"`
}

// CastEntry 演员与角色
type CastEntry struct {
	Person *model.Person `json:"person"`
	Role   string        `json:"role"`
}

// MovieDetail 电影详情页数据
type MovieDetail struct {
	Movie        *model.Movie         `json:"movie"`
	Crew         CrewGroups           `json:"crew"`
	Starring     []CastEntry          `json:"starring"`
	Supporting   []CastEntry          `json:"supporting"`
	BasedOn      []string             `json:"based_on"`
	Reviews      []*model.Review      `json:"reviews"`
	MediaLinks   []*model.MediaLink   `json:"media_links"`
	ViewerReview *model.Review        `json:"viewer_review"`
	ViewerLink   *model.UserMovieLink `json:"viewer_link"`
}

// MovieDetail 电影详情，viewerID 为 0 表示未登录
func (s *CatalogService) MovieDetail(movieID, viewerID int) (*MovieDetail, error) {
	movie, err := s.repos.Movie.FindByID(movieID)
	if err != nil {
		return nil, fmt.Errorf("load movie %d: %w", movieID, err)
	}
	if movie == nil {
		return nil, fmt.Errorf("movie %d: %w", movieID, ErrNotFound)
	}

	crew, err := s.crewGroups(movieID)
	if err != nil {
		return nil, err
	}

	cast, err := s.repos.Credit.CastForMovie(movieID)
	if err != nil {
		return nil, fmt.Errorf("load cast: %w", err)
	}

	detail := &MovieDetail{
		Movie:      movie,
		Crew:       crew,
		Starring:   []CastEntry{},
		Supporting: []CastEntry{},
		BasedOn:    SplitBasedOn(movie.BasedOn),
	}
	for _, c := range cast {
		entry := CastEntry{Person: c.Person, Role: c.Role}
		if c.Starring {
			detail.Starring = append(detail.Starring, entry)
		} else {
			detail.Supporting = append(detail.Supporting, entry)
		}
	}

	if detail.Reviews, err = s.repos.Review.ListByMovie(movieID); err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}
	if detail.MediaLinks, err = s.repos.MediaLink.ListByMovie(movieID); err != nil {
		return nil, fmt.Errorf("load media links: %w", err)
	}

	if viewerID != 0 {
		if detail.ViewerReview, err = s.repos.Review.FindByUserMovie(viewerID, movieID); err != nil {
			return nil, fmt.Errorf("load viewer review: %w", err)
		}
		if detail.ViewerLink, err = s.repos.UserMovie.Find(viewerID, movieID); err != nil {
			return nil, fmt.Errorf("load viewer link: %w", err)
		}
	}
	return detail, nil
}

// crewGroups 导演与摄影必须恰好一位，作曲最多一位
func (s *CatalogService) crewGroups(movieID int) (CrewGroups, error) {
	var groups CrewGroups

	byJob := make(map[string][]*model.Person, len(model.JobTitles))
	for _, title := range model.JobTitles {
		people, err := s.repos.Credit.CrewByJob(movieID, title)
		if err != nil {
			return groups, fmt.Errorf("load %s: %w", title, err)
		}
		byJob[title] = people
	}

	for _, title := range []string{model.JobDirector, model.JobCinematographer} {
		switch n := len(byJob[title]); {
		case n == 0:
			return groups, fmt.Errorf("movie %d has no %s: %w", movieID, title, ErrIncompleteCredits)
		case n > 1:
			return groups, fmt.Errorf("movie %d has %d %s credits: %w", movieID, n, title, ErrAmbiguous)
		}
	}
	if n := len(byJob[model.JobComposer]); n > 1 {
		return groups, fmt.Errorf("movie %d has %d composer credits: %w", movieID, n, ErrAmbiguous)
	}

	groups.Director = byJob[model.JobDirector][0]
	groups.Cinematographer = byJob[model.JobCinematographer][0]
	if len(byJob[model.JobComposer]) == 1 {
		groups.Composer = byJob[model.JobComposer][0]
	}
	groups.Producers = byJob[model.JobProducer]
	groups.Writers = byJob[model.JobWriter]
	return groups, nil
}

// SplitBasedOn 把 "作品 By 作者" 拆成两部分，"n/a" 或空返回 nil
func SplitBasedOn(basedOn string) []string {
	basedOn = strings.TrimSpace(basedOn)
	if basedOn == "" || strings.EqualFold(basedOn, "n/a") {
		return nil
	}
	parts := strings.Split(basedOn, "By")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// RelatedMovies 同导演的其他电影，超过上限时随机取 3 部
func (s *CatalogService) RelatedMovies(movieID int) ([]*model.Movie, error) {
	directors, err := s.repos.Credit.CrewByJob(movieID, model.JobDirector)
	if err != nil {
		return nil, fmt.Errorf("load director: %w", err)
	}
	switch len(directors) {
	case 0:
		return nil, fmt.Errorf("director of movie %d: %w", movieID, ErrNotFound)
	case 1:
	default:
		return nil, fmt.Errorf("movie %d has %d directors: %w", movieID, len(directors), ErrAmbiguous)
	}

	movies, err := s.repos.Credit.MoviesByCrew(directors[0].ID, model.JobDirector)
	if err != nil {
		return nil, fmt.Errorf("load director's movies: %w", err)
	}

	others := slices.DeleteFunc(movies, func(m *model.Movie) bool { return m.ID == movieID })
	if len(others) > RelatedLimit {
		return sample(others, RelatedLimit, s.intn), nil
	}
	return others, nil
}

// Recommendations 从用户没看过也没加入想看的电影中随机推荐 3 部
func (s *CatalogService) Recommendations(userID int) ([]*model.Movie, error) {
	candidates, err := s.repos.Movie.ListUnseenByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	if len(candidates) < RecommendationSize {
		return nil, fmt.Errorf("%d candidates for user %d: %w", len(candidates), userID, ErrSampleUnderflow)
	}
	return sample(candidates, RecommendationSize, s.intn), nil
}

// sample 无放回随机抽取 k 个元素
func sample[T any](items []T, k int, intn func(n int) int) []T {
	pool := slices.Clone(items)
	for i := 0; i < k; i++ {
		j := i + intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// MovieList 按片名分页的电影列表
func (s *CatalogService) MovieList(page int) (Page[*model.Movie], error) {
	total, err := s.repos.Movie.Count()
	if err != nil {
		return Page[*model.Movie]{}, fmt.Errorf("count movies: %w", err)
	}
	p, offset, err := newPage[*model.Movie](page, ListPageSize, total)
	if err != nil {
		return p, err
	}
	if p.Items, err = s.repos.Movie.List(ListPageSize, offset); err != nil {
		return p, fmt.Errorf("list movies: %w", err)
	}
	return p, nil
}

// PersonList 按姓名分页的影人列表
func (s *CatalogService) PersonList(page int) (Page[*model.Person], error) {
	total, err := s.repos.Person.Count()
	if err != nil {
		return Page[*model.Person]{}, fmt.Errorf("count people: %w", err)
	}
	p, offset, err := newPage[*model.Person](page, ListPageSize, total)
	if err != nil {
		return p, err
	}
	if p.Items, err = s.repos.Person.List(ListPageSize, offset); err != nil {
		return p, fmt.Errorf("list people: %w", err)
	}
	return p, nil
}

// IndexGroup 首字母分组
type IndexGroup struct {
	Letter string         `json:"letter"`
	Movies []*model.Movie `json:"movies"`
}

// MovieIndex 全部电影按片名首字母分组，非字母开头归入 "#"
func (s *CatalogService) MovieIndex() ([]IndexGroup, error) {
	movies, err := s.repos.Movie.ListAll()
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}

	groups := []IndexGroup{}
	pos := map[string]int{}
	for _, m := range movies {
		letter := model.IndexLetter(m.Name)
		i, ok := pos[letter]
		if !ok {
			i = len(groups)
			pos[letter] = i
			groups = append(groups, IndexGroup{Letter: letter})
		}
		groups[i].Movies = append(groups[i].Movies, m)
	}

	slices.SortStableFunc(groups, func(a, b IndexGroup) int {
		return strings.Compare(a.Letter, b.Letter)
	})
	return groups, nil
}

// FreeMovies 可免费观看的电影列表
type FreeMovies struct {
	Count  int64          `json:"count"`
	Movies []*model.Movie `json:"movies"`
}

// FreeMovies 至少有一个免费链接的电影
func (s *CatalogService) FreeMovies() (*FreeMovies, error) {
	movies, err := s.repos.Movie.ListFree()
	if err != nil {
		return nil, fmt.Errorf("list free movies: %w", err)
	}
	count, err := s.repos.Movie.CountFree()
	if err != nil {
		return nil, fmt.Errorf("count free movies: %w", err)
	}
	return &FreeMovies{Count: count, Movies: movies}, nil
}

// MovieRole 出演的电影与角色
type MovieRole struct {
	Movie *model.Movie `json:"movie"`
	Role  string       `json:"role"`
}

// MovieJobs 参与的电影与职位
type MovieJobs struct {
	Movie *model.Movie `json:"movie"`
	Jobs  []string     `json:"jobs"`
}

// PersonDetail 影人详情页数据
type PersonDetail struct {
	Person      *model.Person `json:"person"`
	ActingRoles []MovieRole   `json:"acting_roles"`
	CrewCredits []MovieJobs   `json:"crew_credits"`
}

// PersonDetail 影人详情：演过的角色、担任过的职位（每部电影一条）
func (s *CatalogService) PersonDetail(personID int) (*PersonDetail, error) {
	person, err := s.repos.Person.FindByID(personID)
	if err != nil {
		return nil, fmt.Errorf("load person %d: %w", personID, err)
	}
	if person == nil {
		return nil, fmt.Errorf("person %d: %w", personID, ErrNotFound)
	}

	cast, err := s.repos.Credit.CastForPerson(personID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	crew, err := s.repos.Credit.CrewForPerson(personID)
	if err != nil {
		return nil, fmt.Errorf("load crew credits: %w", err)
	}

	detail := &PersonDetail{Person: person, ActingRoles: []MovieRole{}, CrewCredits: []MovieJobs{}}

	seen := map[int]bool{}
	for _, c := range cast {
		if seen[c.MovieID] {
			continue
		}
		seen[c.MovieID] = true
		detail.ActingRoles = append(detail.ActingRoles, MovieRole{Movie: c.Movie, Role: c.Role})
	}

	pos := map[int]int{}
	for _, c := range crew {
		i, ok := pos[c.MovieID]
		if !ok {
			i = len(detail.CrewCredits)
			pos[c.MovieID] = i
			detail.CrewCredits = append(detail.CrewCredits, MovieJobs{Movie: c.Movie})
		}
		if c.Job != nil {
			detail.CrewCredits[i].Jobs = append(detail.CrewCredits[i].Jobs, c.Job.JobTitle)
		}
	}
	return detail, nil
}

// UserDetail 用户主页数据
type UserDetail struct {
	User      *model.User            `json:"user"`
	Seen      []*model.UserMovieLink `json:"seen"`
	Favorites []*model.UserMovieLink `json:"favorites"`
	WatchList []*model.UserMovieLink `json:"watch_list"`
	Reviews   []*model.Review        `json:"reviews"`
}

// UserDetail 用户的看过 / 喜爱 / 想看列表与评论
func (s *CatalogService) UserDetail(userID int) (*UserDetail, error) {
	user, err := s.repos.User.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	if user == nil || !user.IsActive {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}

	detail := &UserDetail{User: user}
	if detail.Seen, err = s.repos.UserMovie.ListByFlag(userID, repository.FlagSeen); err != nil {
		return nil, fmt.Errorf("load seen: %w", err)
	}
	if detail.Favorites, err = s.repos.UserMovie.ListByFlag(userID, repository.FlagFavorite); err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	if detail.WatchList, err = s.repos.UserMovie.ListByFlag(userID, repository.FlagWatchList); err != nil {
		return nil, fmt.Errorf("load watch list: %w", err)
	}
	if detail.Reviews, err = s.repos.Review.ListByUser(userID); err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}
	return detail, nil
}
