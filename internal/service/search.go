package service

import (
	"fmt"
	"slices"
	"strings"

	"github.com/m-hollow/NoirDB/internal/model"
	"github.com/m-hollow/NoirDB/internal/repository"
)

// SearchPageSize 搜索结果每页数量
const SearchPageSize = 20

// SearchService 电影与影人的名称搜索
type SearchService struct {
	repos *repository.Repositories
}

// NewSearchService 创建搜索服务
func NewSearchService(repos *repository.Repositories) *SearchService {
	return &SearchService{repos: repos}
}

// SearchHit 单条搜索结果
type SearchHit struct {
	Kind   string        `json:"kind"` // movie / person
	Name   string        `json:"name"`
	URL    string        `json:"url"`
	Movie  *model.Movie  `json:"movie,omitempty"`
	Person *model.Person `json:"person,omitempty"`
}

// SearchResult 搜索结果页
type SearchResult struct {
	Query   string          `json:"query"`
	Count   int             `json:"count"`
	Results Page[SearchHit] `json:"results"`
	Movies  []*model.Movie  `json:"movies"`
	People  []*model.Person `json:"people"`
}

// Search 在片名与人名中不区分大小写地查找，合并后按名称排序并分页
func (s *SearchService) Search(query string, page int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	result := &SearchResult{Query: query, Movies: []*model.Movie{}, People: []*model.Person{}}

	var hits []SearchHit
	if query != "" {
		movies, err := s.repos.Movie.SearchByName(query)
		if err != nil {
			return nil, fmt.Errorf("search movies: %w", err)
		}
		people, err := s.repos.Person.SearchByName(query)
		if err != nil {
			return nil, fmt.Errorf("search people: %w", err)
		}

		for _, m := range movies {
			hits = append(hits, SearchHit{Kind: "movie", Name: m.Name, URL: m.URL(), Movie: m})
		}
		for _, p := range people {
			hits = append(hits, SearchHit{Kind: "person", Name: p.Name, URL: p.URL(), Person: p})
		}
		slices.SortStableFunc(hits, func(a, b SearchHit) int {
			return strings.Compare(a.Name, b.Name)
		})
	}

	result.Count = len(hits)
	p, offset, err := newPage[SearchHit](page, SearchPageSize, int64(len(hits)))
	if err != nil {
		return nil, err
	}
	end := min(offset+SearchPageSize, len(hits))
	p.Items = append(p.Items, hits[offset:end]...)
	result.Results = p

	// 当前页按类型拆分，便于分栏展示
	for _, h := range p.Items {
		if h.Movie != nil {
			result.Movies = append(result.Movies, h.Movie)
		} else {
			result.People = append(result.People, h.Person)
		}
	}
	return result, nil
}

// Suggestion 自动补全条目
type Suggestion struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Autocomplete 展示名与人名的模糊匹配，电影在前影人在后
func (s *SearchService) Autocomplete(term string) ([]Suggestion, error) {
	term = strings.TrimSpace(term)
	suggestions := []Suggestion{}
	if term == "" {
		return suggestions, nil
	}

	movies, err := s.repos.Movie.SearchByDisplayName(term)
	if err != nil {
		return nil, fmt.Errorf("autocomplete movies: %w", err)
	}
	people, err := s.repos.Person.SearchByName(term)
	if err != nil {
		return nil, fmt.Errorf("autocomplete people: %w", err)
	}

	for _, m := range movies {
		suggestions = append(suggestions, Suggestion{Label: m.DisplayName, URL: m.URL()})
	}
	for _, p := range people {
		suggestions = append(suggestions, Suggestion{Label: p.Name, URL: p.URL()})
	}
	return suggestions, nil
}
