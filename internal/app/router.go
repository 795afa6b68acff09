package app

import (
	"lms_backend/docs"
	"lms_backend/internal/config"
	"lms_backend/internal/middleware"
	"lms_backend/internal/model"
	"lms_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)

		api.POST("/auth/register", c.auth.Register)
		api.POST("/auth/login", c.auth.Login)

		api.GET("/courses", c.course.List)
		api.GET("/courses/:id", c.course.Get)
		api.GET("/reviews/course/:courseId", c.review.CourseSummary)
	}

	// 需要授权的路由
	auth := router.Group("/api")
	auth.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		auth.GET("/auth/profile", c.auth.Profile)
		auth.PATCH("/users/profile", c.user.UpdateProfile)
		auth.GET("/users/:id", c.user.Get)

		// 选课与进度
		enrollments := auth.Group("/enrollments")
		{
			enrollments.POST("/enroll/:courseId", middleware.RoleMiddleware(model.RoleStudent), c.enrollment.Enroll)
			enrollments.GET("/my-enrollments", c.enrollment.MyEnrollments)
			enrollments.POST("/lesson/:id/complete", middleware.RoleMiddleware(model.RoleStudent), c.enrollment.CompleteLesson)
			enrollments.GET("/progress/:courseId", c.enrollment.Progress)
			enrollments.GET("/course/:courseId", middleware.RoleMiddleware(model.RoleInstructor), c.enrollment.CourseEnrollments)
			enrollments.GET("/stats/:courseId", middleware.RoleMiddleware(model.RoleInstructor), c.enrollment.Stats)
			enrollments.PATCH("/:id/progress", middleware.RoleMiddleware(model.RoleStudent), c.enrollment.UpdateProgress)
		}

		// 证书
		certificates := auth.Group("/certificates")
		{
			certificates.GET("", c.certificate.List)
			certificates.GET("/:courseId", c.certificate.Download)
		}

		// 私信
		messages := auth.Group("/messages")
		{
			messages.GET("/ws", c.message.HandleWS)
			messages.POST("", c.message.Send)
			messages.GET("/conversations", c.message.Conversations)
			messages.GET("/conversation/:peerId", c.message.Conversation)
			messages.PATCH("/conversation/:peerId/read-all", c.message.MarkAllRead)
			messages.GET("/unread-count", c.message.UnreadCount)
			messages.PATCH("/:id/read", c.message.MarkRead)
			messages.DELETE("/:id", c.message.Delete)
		}

		// 评价
		reviews := auth.Group("/reviews")
		{
			reviews.POST("/course/:courseId", middleware.RoleMiddleware(model.RoleStudent), c.review.Create)
			reviews.PUT("/:id", c.review.Update)
			reviews.DELETE("/:id", c.review.Delete)
		}

		// 测验
		quizzes := auth.Group("/quizzes")
		{
			quizzes.POST("/lesson/:lessonId", middleware.RoleMiddleware(model.RoleInstructor), c.quiz.Create)
			quizzes.GET("/lesson/:lessonId", c.quiz.GetByLesson)
			quizzes.POST("/:id/submit", middleware.RoleMiddleware(model.RoleStudent), c.quiz.Submit)
			quizzes.GET("/:id/attempts", c.quiz.Attempts)
		}

		// 课程管理（讲师）
		courses := auth.Group("/courses")
		courses.Use(middleware.RoleMiddleware(model.RoleInstructor))
		{
			courses.POST("", c.course.Create)
			courses.GET("/teaching", c.course.MyCourses)
			courses.PUT("/:id", c.course.Update)
			courses.DELETE("/:id", c.course.Delete)
			courses.POST("/:id/modules", c.course.AddModule)
			courses.POST("/modules/:moduleId/lessons", c.course.AddLesson)
		}

		// 学生进度总览：学生本人也可访问，角色收窄在服务层
		auth.GET("/analytics/student/:studentId/progress", c.analytics.StudentProgress)

		// 统计看板（讲师/管理员，服务层再按角色收窄口径）
		analytics := auth.Group("/analytics")
		analytics.Use(middleware.RoleMiddleware(model.RoleInstructor))
		{
			analytics.GET("/dashboard", c.analytics.Dashboard)
			analytics.GET("/top-courses", c.analytics.TopCourses)
			analytics.GET("/revenue", c.analytics.Revenue)
			analytics.GET("/reviews", c.analytics.Reviews)
			analytics.GET("/instructor/:instructorId", c.analytics.InstructorStats)
		}

		// 管理员
		admin := auth.Group("/users")
		admin.Use(middleware.RoleMiddleware(model.RoleAdmin))
		{
			admin.GET("", c.user.List)
		}
	}
}
