package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/m-hollow/NoirDB/internal/middleware"
	"github.com/m-hollow/NoirDB/internal/model"
	"github.com/m-hollow/NoirDB/internal/service"
	"github.com/m-hollow/NoirDB/internal/utils"
)

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Home 首页：每日推荐与同导演作品
func (h *Handler) Home(c *gin.Context) {
	pick, err := h.Daily.Current()
	if errors.Is(err, service.ErrNotFound) {
		utils.Success(c, gin.H{"site_name": h.Config.SiteName, "daily": nil, "related": []*model.Movie{}})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	related, err := h.Catalog.RelatedMovies(pick.MovieID)
	if err != nil {
		// 导演信息不完整时首页仍可展示推荐
		h.log.Warn().Err(err).Int("movie_id", pick.MovieID).Msg("related movies unavailable")
		related = []*model.Movie{}
	}

	utils.Success(c, gin.H{
		"site_name": h.Config.SiteName,
		"daily":     pick,
		"related":   related,
	})
}

// DailyHistory 往期每日推荐
func (h *Handler) DailyHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	history, err := h.Daily.History(limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, history)
}

// Movies 电影列表
func (h *Handler) Movies(c *gin.Context) {
	page, err := h.Catalog.MovieList(pageParam(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, page)
}

// MovieIndex 按首字母分组的片名索引
func (h *Handler) MovieIndex(c *gin.Context) {
	groups, err := h.Catalog.MovieIndex()
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, groups)
}

// FreeMovies 可免费观看的电影
func (h *Handler) FreeMovies(c *gin.Context) {
	free, err := h.Catalog.FreeMovies()
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, free)
}

// MovieDetail 电影详情
func (h *Handler) MovieDetail(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	detail, err := h.Catalog.MovieDetail(id, middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, detail)
}

// People 影人列表
func (h *Handler) People(c *gin.Context) {
	page, err := h.Catalog.PersonList(pageParam(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, page)
}

// PersonDetail 影人详情
func (h *Handler) PersonDetail(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	detail, err := h.Catalog.PersonDetail(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, detail)
}

// SearchResults 搜索结果
func (h *Handler) SearchResults(c *gin.Context) {
	result, err := h.Search.Search(c.Query("q"), pageParam(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, result)
}

// Autocomplete 搜索框自动补全，直接返回数组
func (h *Handler) Autocomplete(c *gin.Context) {
	suggestions, err := h.Search.Autocomplete(c.Query("term"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestions)
}
