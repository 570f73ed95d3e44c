package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/m-hollow/NoirDB/internal/config"
	"github.com/m-hollow/NoirDB/internal/logging"
	"github.com/m-hollow/NoirDB/internal/middleware"
	"github.com/m-hollow/NoirDB/internal/model"
	"github.com/m-hollow/NoirDB/internal/repository"
	"github.com/m-hollow/NoirDB/internal/service"
	"github.com/m-hollow/NoirDB/internal/utils"
	"github.com/rs/zerolog"
)

// Handler HTTP 处理器
type Handler struct {
	Config   *config.Config
	Catalog  *service.CatalogService
	Search   *service.SearchService
	Daily    *service.DailyPickService
	Reviews  *service.ReviewService
	Links    *service.LinkService
	Accounts *service.AccountService
	Contact  *service.ContactService
	log      zerolog.Logger
}

// NewHandler 创建处理器
func NewHandler(repos *repository.Repositories, cfg *config.Config, mailer service.Mailer) *Handler {
	return &Handler{
		Config:   cfg,
		Catalog:  service.NewCatalogService(repos),
		Search:   service.NewSearchService(repos),
		Daily:    service.NewDailyPickService(repos, cfg.DailyPickInterval, cfg.DailyPickMaxAttempts),
		Reviews:  service.NewReviewService(repos),
		Links:    service.NewLinkService(repos),
		Accounts: service.NewAccountService(repos),
		Contact:  service.NewContactService(mailer, cfg.ContactRecipient),
		log:      logging.Component("handler"),
	}
}

// respondError 把服务层错误映射为 HTTP 响应
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		utils.NotFound(c, "")
	case errors.Is(err, service.ErrDuplicate):
		utils.Conflict(c, "")
	case errors.Is(err, service.ErrForbidden):
		utils.Forbidden(c, "")
	case errors.Is(err, service.ErrBadHeader):
		utils.BadRequest(c, "Invalid header found")
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrUnknownAction):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		utils.Unauthorized(c, "邮箱或密码错误")
	default:
		_ = c.Error(err)
		h.log.Error().Err(err).
			Str("request_id", middleware.GetRequestID(c)).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		utils.InternalServerError(c, "")
	}
}

// parseID 解析 "<pk>" 或 "<pk>-<slug>" 形式的路径参数，slug 部分只用于展示
func parseID(c *gin.Context, name string) (int, bool) {
	raw, _, _ := strings.Cut(c.Param(name), "-")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		utils.NotFound(c, "")
		return 0, false
	}
	return id, true
}

// pageParam 读取页码，非法值按第一页处理
func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// ==================== 认证 ====================

type loginInput struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Register 注册并直接登录
func (h *Handler) Register(c *gin.Context) {
	var in service.RegisterInput
	if err := c.ShouldBind(&in); err != nil {
		utils.BadRequest(c, "请求参数错误")
		return
	}

	user, err := h.Accounts.Register(in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.startSession(c, user); err != nil {
		h.respondError(c, err)
		return
	}
	utils.Created(c, user)
}

// Login 登录处理
func (h *Handler) Login(c *gin.Context) {
	var in loginInput
	if err := c.ShouldBind(&in); err != nil {
		utils.BadRequest(c, "请求参数错误")
		return
	}

	user, err := h.Accounts.Login(strings.TrimSpace(in.Email), in.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.startSession(c, user); err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, user)
}

// Logout 登出
func (h *Handler) Logout(c *gin.Context) {
	h.endSession(c)
	utils.SuccessWithMessage(c, "已退出登录", nil)
}

// startSession 签发 JWT 并把用户信息写入 Session
func (h *Handler) startSession(c *gin.Context, user *model.User) error {
	token, err := middleware.GenerateToken(user.ID, user.Username, user.Role, h.Config.AppSecret, h.Config.JWTExpiry)
	if err != nil {
		return err
	}
	c.SetCookie(middleware.TokenCookie, token, int(h.Config.JWTExpiry.Seconds()), "/", "", false, true)

	session := sessions.Default(c)
	session.Set("userinfo", model.SessionUser{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
	})
	return session.Save()
}

func (h *Handler) endSession(c *gin.Context) {
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", false, true)

	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		h.log.Warn().Err(err).Msg("session clear failed")
	}
}

// ==================== 用户中心 ====================

// UserDetail 用户主页
func (h *Handler) UserDetail(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	detail, err := h.Catalog.UserDetail(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, detail)
}

// CloseAccount 关闭账号，只能关闭自己的
func (h *Handler) CloseAccount(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.Accounts.CloseAccount(middleware.GetUserID(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	h.endSession(c)
	utils.SuccessWithMessage(c, "账号已关闭", nil)
}

// UpdatePassword 修改密码
func (h *Handler) UpdatePassword(c *gin.Context) {
	var in service.PasswordInput
	if err := c.ShouldBind(&in); err != nil {
		utils.BadRequest(c, "请求参数错误")
		return
	}
	if err := h.Accounts.ChangePassword(middleware.GetUserID(c), in); err != nil {
		h.respondError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "密码已更新", nil)
}

// ContactSubmit 联系表单
func (h *Handler) ContactSubmit(c *gin.Context) {
	var form service.ContactForm
	if err := c.ShouldBind(&form); err != nil {
		utils.BadRequest(c, "请求参数错误")
		return
	}
	if err := h.Contact.SendContact(c.Request.Context(), form); err != nil {
		h.respondError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "消息已发送", nil)
}
