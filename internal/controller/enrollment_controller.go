package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type EnrollmentController struct {
	EnrollmentService *service.EnrollmentService
}

func NewEnrollmentController(enrollmentService *service.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{EnrollmentService: enrollmentService}
}

// Enroll godoc
// @Summary 报名课程
// @Description 当前学生报名指定课程，重复报名返回 409
// @Tags 选课
// @Produce  json
// @Security BearerAuth
// @Param   courseId path int true "课程ID"
// @Success 201 {object} util.Response{data=model.CourseEnrollment}
// @Failure 404 {object} util.Response "课程不存在"
// @Failure 409 {object} util.Response "已报名该课程"
// @Router /api/enrollments/enroll/{courseId} [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, err := strconv.ParseUint(ctx.Param("courseId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	enrollment, err := c.EnrollmentService.Enroll(ctx.Request.Context(), claims.UserID, uint(courseID))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, enrollment)
}

// MyEnrollments godoc
// @Summary 我的选课
// @Description 当前学生的全部选课记录，含课程结构
// @Tags 选课
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.CourseEnrollment}
// @Router /api/enrollments/my-enrollments [get]
func (c *EnrollmentController) MyEnrollments(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	enrollments, err := c.EnrollmentService.GetStudentEnrollments(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, enrollments)
}

// CourseEnrollments godoc
// @Summary 课程选课名单
// @Description 讲师或管理员查看某课程的全部学员
// @Tags 选课
// @Produce  json
// @Security BearerAuth
// @Param   courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=[]model.CourseEnrollment}
// @Router /api/enrollments/course/{courseId} [get]
func (c *EnrollmentController) CourseEnrollments(ctx *gin.Context) {
	courseID, err := strconv.ParseUint(ctx.Param("courseId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	enrollments, err := c.EnrollmentService.GetCourseEnrollments(uint(courseID))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, enrollments)
}

// UpdateProgressRequest 进度更新请求体
type UpdateProgressRequest struct {
	Progress *float64 `json:"progress" binding:"required"`
}

// UpdateProgress godoc
// @Summary 更新选课进度
// @Description 直接写入进度百分比，达到 100 触发结业
// @Tags 选课
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "选课ID"
// @Param   body body UpdateProgressRequest true "进度百分比 0-100"
// @Success 200 {object} util.Response{data=model.CourseEnrollment}
// @Failure 400 {object} util.Response "进度超出范围"
// @Failure 404 {object} util.Response "选课记录不存在"
// @Router /api/enrollments/{id}/progress [patch]
func (c *EnrollmentController) UpdateProgress(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid enrollment id")
		return
	}

	var req UpdateProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	enrollment, err := c.EnrollmentService.UpdateProgress(ctx.Request.Context(), uint(id), *req.Progress)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

// CompleteLesson godoc
// @Summary 标记课时完成
// @Description 幂等标记，首次完成会重算课程进度
// @Tags 选课
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课时ID"
// @Success 200 {object} util.Response{data=model.LessonCompletion}
// @Failure 403 {object} util.Response "未选修该课程"
// @Failure 404 {object} util.Response "课时不存在"
// @Router /api/enrollments/lesson/{id}/complete [post]
func (c *EnrollmentController) CompleteLesson(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	lessonID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid lesson id")
		return
	}

	completion, err := c.EnrollmentService.MarkLessonComplete(ctx.Request.Context(), claims.UserID, uint(lessonID))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, completion)
}

// Progress godoc
// @Summary 课程进度明细
// @Description 当前学生在某课程的进度、已完成课时与章节
// @Tags 选课
// @Produce  json
// @Security BearerAuth
// @Param   courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=service.ProgressReport}
// @Failure 404 {object} util.Response "选课记录不存在"
// @Router /api/enrollments/progress/{courseId} [get]
func (c *EnrollmentController) Progress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, err := strconv.ParseUint(ctx.Param("courseId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	report, err := c.EnrollmentService.GetStudentProgress(claims.UserID, uint(courseID))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// Stats godoc
// @Summary 课程选课统计
// @Description 讲师或管理员查看课程的报名、结业与进度统计
// @Tags 选课
// @Produce  json
// @Security BearerAuth
// @Param   courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=service.EnrollmentStats}
// @Router /api/enrollments/stats/{courseId} [get]
func (c *EnrollmentController) Stats(ctx *gin.Context) {
	courseID, err := strconv.ParseUint(ctx.Param("courseId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	stats, err := c.EnrollmentService.GetEnrollmentStats(uint(courseID))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
