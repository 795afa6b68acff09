package controller

import (
	"fmt"
	"lms_backend/internal/service"
	"lms_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type CertificateController struct {
	EnrollmentService  *service.EnrollmentService
	CertificateService *service.CertificateService
	UserService        *service.UserService
	CourseService      *service.CourseService
}

func NewCertificateController(
	enrollmentService *service.EnrollmentService,
	certificateService *service.CertificateService,
	userService *service.UserService,
	courseService *service.CourseService,
) *CertificateController {
	return &CertificateController{
		EnrollmentService:  enrollmentService,
		CertificateService: certificateService,
		UserService:        userService,
		CourseService:      courseService,
	}
}

// List godoc
// @Summary 我的证书
// @Description 当前学生所有已生成证书的结业记录，按结业时间倒序
// @Tags 证书
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.CourseEnrollment}
// @Router /api/certificates [get]
func (c *CertificateController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	enrollments, err := c.EnrollmentService.ListCertificates(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, enrollments)
}

// Download godoc
// @Summary 下载结业证书
// @Description 现场渲染 PDF 并以附件返回，未结业返回 403
// @Tags 证书
// @Produce  application/pdf
// @Security BearerAuth
// @Param   courseId path int true "课程ID"
// @Success 200 {file} file "证书 PDF"
// @Failure 403 {object} util.Response "尚未完成该课程"
// @Router /api/certificates/{courseId} [get]
func (c *CertificateController) Download(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, err := strconv.ParseUint(ctx.Param("courseId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	enrollment, err := c.EnrollmentService.GetCompletedEnrollment(claims.UserID, uint(courseID))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if enrollment == nil {
		util.Forbidden(ctx, util.ErrCourseNotCompleted.Error())
		return
	}

	student, err := c.UserService.GetByID(claims.UserID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}
	course, err := c.CourseService.Get(uint(courseID))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	pdf, err := c.CertificateService.Render(ctx.Request.Context(), student, course)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	filename := fmt.Sprintf("certificate-%d-%d.pdf", claims.UserID, courseID)
	ctx.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	ctx.Data(200, "application/pdf", pdf)
}
