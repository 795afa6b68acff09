package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	AnalyticsService *service.AnalyticsService
}

func NewAnalyticsController(analyticsService *service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{AnalyticsService: analyticsService}
}

// Dashboard godoc
// @Summary 统计看板
// @Description 管理员看全平台，讲师只看自己名下课程
// @Tags 统计
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.DashboardStats}
// @Failure 403 {object} util.Response "无权访问"
// @Router /api/analytics/dashboard [get]
func (c *AnalyticsController) Dashboard(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	stats, err := c.AnalyticsService.GetDashboardStats(claims.Role, claims.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// TopCourses godoc
// @Summary 课程报名榜
// @Description 按报名量排序的前 10 门课程
// @Tags 统计
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.CourseStat}
// @Router /api/analytics/top-courses [get]
func (c *AnalyticsController) TopCourses(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	stats, err := c.AnalyticsService.GetTopCourses(claims.Role, claims.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// Revenue godoc
// @Summary 收入趋势
// @Description 最近 12 个自然月的逐月收入
// @Tags 统计
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.MonthlyRevenue}
// @Router /api/analytics/revenue [get]
func (c *AnalyticsController) Revenue(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	months, err := c.AnalyticsService.GetRevenueOverTime(claims.Role, claims.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, months)
}

// InstructorStats godoc
// @Summary 讲师统计
// @Description 管理员可查任意讲师，讲师只能查自己
// @Tags 统计
// @Produce  json
// @Security BearerAuth
// @Param   instructorId path int true "讲师ID"
// @Success 200 {object} util.Response{data=service.InstructorStats}
// @Failure 403 {object} util.Response "只能查看自己的统计"
// @Router /api/analytics/instructor/{instructorId} [get]
func (c *AnalyticsController) InstructorStats(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	instructorID, err := strconv.ParseUint(ctx.Param("instructorId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid instructor id")
		return
	}
	stats, err := c.AnalyticsService.GetInstructorStats(claims.Role, claims.UserID, uint(instructorID))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// StudentProgress godoc
// @Summary 学生学习进度总览
// @Description 学生看自己，讲师看该学生在自己课程里的选课，管理员不设限
// @Tags 统计
// @Produce  json
// @Security BearerAuth
// @Param   studentId path int true "学生ID"
// @Success 200 {object} util.Response{data=[]model.CourseEnrollment}
// @Failure 403 {object} util.Response "无权查看该学生进度"
// @Router /api/analytics/student/{studentId}/progress [get]
func (c *AnalyticsController) StudentProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	studentID, err := strconv.ParseUint(ctx.Param("studentId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid student id")
		return
	}
	enrollments, err := c.AnalyticsService.GetStudentProgress(claims.Role, claims.UserID, uint(studentID))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, enrollments)
}

// Reviews godoc
// @Summary 评价概况
// @Description 最近 30 天的平均评分与各评分档数量
// @Tags 统计
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.ReviewsSummary}
// @Router /api/analytics/reviews [get]
func (c *AnalyticsController) Reviews(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	summary, err := c.AnalyticsService.GetReviewsSummary(claims.Role, claims.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}
