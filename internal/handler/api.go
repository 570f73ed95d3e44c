package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/m-hollow/NoirDB/internal/middleware"
	"github.com/m-hollow/NoirDB/internal/model"
	"github.com/m-hollow/NoirDB/internal/service"
	"github.com/m-hollow/NoirDB/internal/utils"
)

// WriteReview 为电影写评论
func (h *Handler) WriteReview(c *gin.Context) {
	movieID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var in service.ReviewInput
	if err := c.ShouldBind(&in); err != nil {
		utils.BadRequest(c, "请求参数错误")
		return
	}

	review, err := h.Reviews.WriteReview(middleware.GetUserID(c), movieID, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Created(c, review)
}

// UpdateReview 修改自己的评论
func (h *Handler) UpdateReview(c *gin.Context) {
	reviewID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var in service.ReviewInput
	if err := c.ShouldBind(&in); err != nil {
		utils.BadRequest(c, "请求参数错误")
		return
	}

	review, err := h.Reviews.UpdateReview(middleware.GetUserID(c), reviewID, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, review)
}

// DeleteReview 删除自己的评论
func (h *Handler) DeleteReview(c *gin.Context) {
	reviewID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.Reviews.DeleteReview(middleware.GetUserID(c), reviewID); err != nil {
		h.respondError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "评论已删除", nil)
}

// ApplyLinkAction 看过 / 喜爱 / 想看 的标记与取消
func (h *Handler) ApplyLinkAction(c *gin.Context) {
	movieID, ok := parseID(c, "id")
	if !ok {
		return
	}
	action, err := model.ParseLinkAction(c.Param("action"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	link, err := h.Links.ApplyLinkAction(middleware.GetUserID(c), movieID, action)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, link)
}

// Recommendations 为当前用户随机推荐未看过的电影
func (h *Handler) Recommendations(c *gin.Context) {
	movies, err := h.Catalog.Recommendations(middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, movies)
}
