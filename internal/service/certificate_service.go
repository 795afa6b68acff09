package service

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

//go:embed templates/certificate.html
var certificateTemplate string

// RenderCertificateHTML 把学员姓名、课程名和签发日期代入证书模板。
// 占位符做字面替换，模板内容完全由我们自己控制，不需要 HTML 转义。
func RenderCertificateHTML(studentName, courseName, date string) string {
	html := certificateTemplate
	html = strings.ReplaceAll(html, "{{studentName}}", studentName)
	html = strings.ReplaceAll(html, "{{courseName}}", courseName)
	html = strings.ReplaceAll(html, "{{date}}", date)
	return html
}

// CertificateRenderer 用无头浏览器把 HTML 打印成 PDF。无状态，可并发调用。
type CertificateRenderer struct{}

func NewCertificateRenderer() *CertificateRenderer {
	return &CertificateRenderer{}
}

// RenderPDF A4 横向打印，保留背景色
func (r *CertificateRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(true).
				WithPaperWidth(11.69).
				WithPaperHeight(8.27).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdf, nil
}

// PDFRenderer HTML 转 PDF 的渲染后端
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// CertificateStore 签发完成后回写证书地址
type CertificateStore interface {
	SetCertificateURL(id uint, url string) error
}

// CertificateService 结业证书签发：渲染 → 上传 → 回写地址。
// 文件名固定为 certificate-{studentId}-{courseId}.pdf，重复签发只是覆盖同一对象。
type CertificateService struct {
	renderer    PDFRenderer
	storage     *StorageService
	enrollments CertificateStore
	cfg         *config.Config
}

func NewCertificateService(renderer PDFRenderer, storage *StorageService, enrollments CertificateStore, cfg *config.Config) *CertificateService {
	return &CertificateService{
		renderer:    renderer,
		storage:     storage,
		enrollments: enrollments,
		cfg:         cfg,
	}
}

func CertificateObjectName(studentID, courseID uint) string {
	return fmt.Sprintf("certificates/certificate-%d-%d.pdf", studentID, courseID)
}

// Render 生成证书 PDF，不落库，证书下载接口用它现场出文件。
// 证书日期取调用当下，重新签发会得到当天的日期
func (s *CertificateService) Render(ctx context.Context, student *model.User, course *model.Course) ([]byte, error) {
	html := RenderCertificateHTML(student.FullName(), course.Title, time.Now().Format("January 2, 2006"))
	return s.renderer.RenderPDF(ctx, html)
}

// Issue 渲染并上传证书，然后把可访问地址写回选课记录。
// 每个失败环节都会计数，调用方不会因为签发失败回滚结业状态。
func (s *CertificateService) Issue(ctx context.Context, enrollment *model.CourseEnrollment, student *model.User, course *model.Course) error {
	pdf, err := s.Render(ctx, student, course)
	if err != nil {
		monitoring.CertificateFailures.WithLabelValues("render").Inc()
		return fmt.Errorf("render certificate: %w", err)
	}

	objectName := CertificateObjectName(student.ID, course.ID)
	url, err := s.storage.Upload(ctx, objectName, bytes.NewReader(pdf), int64(len(pdf)), "application/pdf")
	if err != nil {
		monitoring.CertificateFailures.WithLabelValues("upload").Inc()
		return fmt.Errorf("upload certificate: %w", err)
	}
	if base := s.cfg.App.BackendURL; base != "" {
		url = strings.TrimRight(base, "/") + url
	}

	if err := s.enrollments.SetCertificateURL(enrollment.ID, url); err != nil {
		monitoring.CertificateFailures.WithLabelValues("persist").Inc()
		return fmt.Errorf("persist certificate url: %w", err)
	}
	enrollment.CertificateURL = url

	logger.Log.Info("certificate issued",
		zap.Uint("student_id", student.ID),
		zap.Uint("course_id", course.ID),
		zap.String("url", url))
	return nil
}
