package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// Create godoc
// @Summary 创建课时测验
// @Description 讲师给课时挂一份测验，一个课时最多一份
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   lessonId path int true "课时ID"
// @Param   body body service.CreateQuizRequest true "测验与题目"
// @Success 201 {object} util.Response{data=model.Quiz}
// @Router /api/quizzes/lesson/{lessonId} [post]
func (c *QuizController) Create(ctx *gin.Context) {
	lessonID, err := strconv.ParseUint(ctx.Param("lessonId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid lesson id")
		return
	}

	var req service.CreateQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.QuizService.Create(uint(lessonID), &req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// GetByLesson godoc
// @Summary 课时测验
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   lessonId path int true "课时ID"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/quizzes/lesson/{lessonId} [get]
func (c *QuizController) GetByLesson(ctx *gin.Context) {
	lessonID, err := strconv.ParseUint(ctx.Param("lessonId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid lesson id")
		return
	}

	quiz, err := c.QuizService.GetByLesson(uint(lessonID))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// Submit godoc
// @Summary 提交作答
// @Description 按正确率打分并保存作答记录
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "测验ID"
// @Param   body body service.SubmitRequest true "答案下标数组"
// @Success 201 {object} util.Response{data=model.QuizAttempt}
// @Failure 403 {object} util.Response "未选修该课程"
// @Router /api/quizzes/{id}/submit [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	var req service.SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, err := c.QuizService.Submit(claims.UserID, uint(quizID), &req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, attempt)
}

// Attempts godoc
// @Summary 我的作答记录
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "测验ID"
// @Success 200 {object} util.Response{data=[]model.QuizAttempt}
// @Router /api/quizzes/{id}/attempts [get]
func (c *QuizController) Attempts(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	attempts, err := c.QuizService.ListAttempts(uint(quizID), claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}
