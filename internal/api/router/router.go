package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"capstone-hub/backend/config"
	"capstone-hub/backend/internal/api/handler"
	"capstone-hub/backend/internal/api/middleware"
	"capstone-hub/backend/pkg/jwt"
	"capstone-hub/backend/pkg/redis"
)

// 全局请求体上限。附件走 multipart，留足余量。
const maxBodyBytes = 32 << 20

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			login := auth.Group("")
			if cfg.Feature.RateLimitEnabled {
				login.Use(middleware.RateLimit(rdb, 10, time.Minute))
			}
			login.POST("/login", h.Auth.Login)

			auth.POST("/register", h.Auth.Register)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("/reviewers", middleware.RoleAuth("admin"), h.User.ListReviewers)
				users.GET("", middleware.RoleAuth("admin"), h.User.ListUsers)
				users.POST("", middleware.RoleAuth("admin"), h.User.CreateUser)
				users.GET("/:id", middleware.RoleAuth("admin"), h.User.GetUser)
				users.PUT("/:id", h.User.UpdateUser) // admin 或本人（Service 层鉴权）
				users.DELETE("/:id", middleware.RoleAuth("admin"), h.User.DeleteUser)
			}

			// 课题模块
			topics := authorized.Group("/topics")
			{
				topics.GET("", h.Topic.ListTopics)
				topics.GET("/:id", h.Topic.GetTopic)
				topics.POST("", middleware.RoleAuth("teacher", "admin"), h.Topic.CreateTopic)
				topics.PUT("/:id", middleware.RoleAuth("teacher", "admin"), h.Topic.UpdateTopic)
				topics.DELETE("/:id", middleware.RoleAuth("teacher", "admin"), h.Topic.DeleteTopic)
				topics.PUT("/:id/status", middleware.RoleAuth("admin"), h.Topic.SetTopicStatus)
				topics.PUT("/:id/reviewer", middleware.RoleAuth("admin"), h.Topic.AssignReviewer)
				topics.POST("/auto-assign-reviewers", middleware.RoleAuth("admin"), h.Topic.AutoAssignReviewers)
				topics.POST("/reset-counters", middleware.RoleAuth("admin"), h.Topic.ResetCounters)
			}

			// 项目模块
			projects := authorized.Group("/projects")
			{
				projects.GET("/my", h.Project.ListMyProjects)
				projects.GET("", middleware.RoleAuth("teacher", "admin"), h.Project.ListProjects)
				projects.POST("", middleware.RoleAuth("student", "admin"), h.Project.Register)
				projects.GET("/:id", h.Project.GetProject)
				projects.DELETE("/:id", middleware.RoleAuth("student", "admin"), h.Project.Withdraw)
				projects.PUT("/:id/status", middleware.RoleAuth("teacher", "admin"), h.Project.UpdateStatus)

				// 评分
				projects.POST("/:id/evaluations", middleware.RoleAuth("teacher"), h.Evaluation.SubmitEvaluation)
				projects.GET("/:id/evaluations", middleware.RoleAuth("teacher", "admin"), h.Evaluation.ListEvaluations)
				projects.PUT("/:id/council-score", middleware.RoleAuth("admin"), h.Evaluation.SetCouncilScore)

				// 周报与论文
				projects.POST("/:id/reports", middleware.RoleAuth("student"), h.Report.SubmitReport)
				projects.GET("/:id/reports", h.Report.ListReports)
				projects.POST("/:id/thesis", middleware.RoleAuth("student"), h.Report.UploadFinalReport)
			}

			// 周报批阅与附件
			reports := authorized.Group("/reports")
			{
				reports.PUT("/:id/review", middleware.RoleAuth("teacher"), h.Report.ReviewReport)
				reports.POST("/:id/attachment", middleware.RoleAuth("student"), h.Report.AttachFile)
			}

			// 自拟课题模块
			proposals := authorized.Group("/topic-proposals")
			{
				proposals.GET("", h.Proposal.ListMyProposals)
				proposals.POST("", middleware.RoleAuth("student"), h.Proposal.CreateProposal)
				proposals.GET("/:id", h.Proposal.GetProposal)
				proposals.PUT("/:id/review", middleware.RoleAuth("teacher"), h.Proposal.ReviewProposal)
				proposals.DELETE("/:id", middleware.RoleAuth("student"), h.Proposal.DeleteProposal)
			}

			// 会面预约模块
			slots := authorized.Group("/scheduling/slots")
			{
				slots.GET("", h.Scheduling.ListSlots)
				slots.POST("", middleware.RoleAuth("teacher"), h.Scheduling.CreateSlot)
				slots.DELETE("/:id", middleware.RoleAuth("teacher", "admin"), h.Scheduling.DeleteSlot)
				slots.GET("/:id/bookings", middleware.RoleAuth("teacher", "admin"), h.Scheduling.ListSlotBookings)
			}
			bookings := authorized.Group("/scheduling/bookings")
			{
				bookings.GET("/my", h.Scheduling.ListMyBookings)
				bookings.GET("/calendar.ics", h.Scheduling.ExportCalendar)
				bookings.POST("", middleware.RoleAuth("student"), h.Scheduling.BookSlot)
				bookings.PUT("/:id", h.Scheduling.UpdateBooking)
			}

			// 学期公告模块
			announcements := authorized.Group("/announcements")
			{
				announcements.GET("", h.Announcement.ListAnnouncements)
				announcements.GET("/current", h.Announcement.GetCurrentAnnouncement)
				announcements.POST("", middleware.RoleAuth("admin"), h.Announcement.CreateAnnouncement)
				announcements.PUT("/:id", middleware.RoleAuth("admin"), h.Announcement.UpdateAnnouncement)
				announcements.PUT("/:id/publish", middleware.RoleAuth("admin"), h.Announcement.PublishAnnouncement)
				announcements.DELETE("/:id", middleware.RoleAuth("admin"), h.Announcement.DeleteAnnouncement)
			}

			// 站内通知
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.ListNotifications)
				notifications.PUT("/read-all", h.Notification.MarkAllRead)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
			}

			// 成绩导出
			authorized.GET("/export/grades", middleware.RoleAuth("admin"), h.Export.ExportGrades)
		}
	}

	return r
}
