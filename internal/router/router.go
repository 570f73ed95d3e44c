package router

import (
	"github.com/gin-gonic/gin"
	"github.com/m-hollow/NoirDB/internal/handler"
	"github.com/m-hollow/NoirDB/internal/middleware"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", h.Health)

	// ==================== 公开页面 ====================
	public := r.Group("")
	public.Use(middleware.OptionalAuth(h.Config.AppSecret))
	{
		public.GET("/", h.Home)
		public.GET("/movies", h.Movies)
		public.GET("/movies/index", h.MovieIndex)
		public.GET("/movies/free", h.FreeMovies)
		public.GET("/movies/:id", h.MovieDetail)
		public.GET("/people", h.People)
		public.GET("/people/:id", h.PersonDetail)
		public.GET("/search", h.SearchResults)
		public.GET("/autocomplete", h.Autocomplete)
		public.POST("/contact", h.ContactSubmit)
	}

	// ==================== 认证 ====================
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
	}

	// ==================== 需要登录 ====================
	member := r.Group("")
	member.Use(middleware.RequireAuth(h.Config.AppSecret))
	{
		member.GET("/users/:id", h.UserDetail)
		member.POST("/account/close/:id", h.CloseAccount)
		member.PUT("/account/password", h.UpdatePassword)
		member.GET("/recommendations", h.Recommendations)
		member.GET("/daily/history", h.DailyHistory)

		member.POST("/movies/:id/reviews", h.WriteReview)
		member.PUT("/reviews/:id", h.UpdateReview)
		member.DELETE("/reviews/:id", h.DeleteReview)
		member.POST("/movies/:id/links/:action", h.ApplyLinkAction)
	}
}
