package controller

import (
	"lms_backend/internal/model"
	"lms_backend/internal/service"
	"lms_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ReviewController struct {
	ReviewService *service.ReviewService
}

func NewReviewController(reviewService *service.ReviewService) *ReviewController {
	return &ReviewController{ReviewService: reviewService}
}

// Create godoc
// @Summary 评价课程
// @Description 已选课学生评价课程，每门课只能评价一次
// @Tags 评价
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   courseId path int true "课程ID"
// @Param   body body service.ReviewRequest true "评分与评语"
// @Success 201 {object} util.Response{data=model.CourseReview}
// @Failure 403 {object} util.Response "未选修该课程"
// @Failure 409 {object} util.Response "已评价过该课程"
// @Router /api/reviews/course/{courseId} [post]
func (c *ReviewController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, err := strconv.ParseUint(ctx.Param("courseId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	var req service.ReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	review, err := c.ReviewService.Create(claims.UserID, uint(courseID), &req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Created(ctx, review)
}

// CourseSummary godoc
// @Summary 课程评价列表
// @Description 课程的全部评价与平均评分
// @Tags 评价
// @Produce  json
// @Param   courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=service.CourseReviewSummary}
// @Router /api/reviews/course/{courseId} [get]
func (c *ReviewController) CourseSummary(ctx *gin.Context) {
	courseID, err := strconv.ParseUint(ctx.Param("courseId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	summary, err := c.ReviewService.CourseSummary(uint(courseID))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// Update godoc
// @Summary 修改评价
// @Tags 评价
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "评价ID"
// @Param   body body service.ReviewRequest true "评分与评语"
// @Success 200 {object} util.Response{data=model.CourseReview}
// @Router /api/reviews/{id} [put]
func (c *ReviewController) Update(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid review id")
		return
	}

	var req service.ReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	review, err := c.ReviewService.Update(uint(id), claims.UserID, &req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, review)
}

// Delete godoc
// @Summary 删除评价
// @Tags 评价
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "评价ID"
// @Success 200 {object} util.Response
// @Router /api/reviews/{id} [delete]
func (c *ReviewController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid review id")
		return
	}

	if err := c.ReviewService.Delete(uint(id), claims.UserID, claims.Role == model.RoleAdmin); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
