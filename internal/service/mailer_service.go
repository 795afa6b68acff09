package service

import (
	"context"
	"embed"
	"fmt"
	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

//go:embed templates/emails/*.html
var emailTemplates embed.FS

// Mailer 邮件发送后端
type Mailer interface {
	Send(ctx context.Context, toName, toEmail, subject, htmlBody string) error
}

// SendGridMailer 生产环境的 SendGrid 实现
type SendGridMailer struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

func NewSendGridMailer(cfg *config.MailConfig) *SendGridMailer {
	return &SendGridMailer{
		client:    sendgrid.NewSendClient(cfg.SendGridKey),
		fromName:  cfg.FromName,
		fromEmail: cfg.FromEmail,
	}
}

func (m *SendGridMailer) Send(ctx context.Context, toName, toEmail, subject, htmlBody string) error {
	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", htmlBody)
	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid responded %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// ConsoleMailer 开发环境实现，只把邮件打到日志里
type ConsoleMailer struct{}

func (m *ConsoleMailer) Send(ctx context.Context, toName, toEmail, subject, htmlBody string) error {
	logger.Log.Info("console mail",
		zap.String("to", fmt.Sprintf("%s <%s>", toName, toEmail)),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(htmlBody)))
	return nil
}

// MailerService 业务通知邮件。所有发送都是尽力而为：
// 失败只记日志并计数，永远不向调用方返回错误。
type MailerService struct {
	mailer Mailer
	cfg    *config.Config
}

func NewMailerService(cfg *config.Config) *MailerService {
	var mailer Mailer
	if cfg.Mail.Provider == "sendgrid" && cfg.Mail.SendGridKey != "" {
		mailer = NewSendGridMailer(&cfg.Mail)
	} else {
		mailer = &ConsoleMailer{}
	}
	return &MailerService{mailer: mailer, cfg: cfg}
}

func (s *MailerService) renderTemplate(name string, vars map[string]string) (string, error) {
	raw, err := emailTemplates.ReadFile("templates/emails/" + name + ".html")
	if err != nil {
		return "", err
	}
	body := string(raw)
	vars["frontendUrl"] = s.cfg.App.FrontendURL
	vars["supportEmail"] = s.cfg.Mail.SupportEmail
	for key, value := range vars {
		body = strings.ReplaceAll(body, "{{"+key+"}}", value)
	}
	return body, nil
}

func (s *MailerService) send(ctx context.Context, template string, user *model.User, subject string, vars map[string]string) {
	body, err := s.renderTemplate(template, vars)
	if err != nil {
		monitoring.NotificationFailures.WithLabelValues(template).Inc()
		logger.Log.Error("email template render failed",
			zap.String("template", template), zap.Error(err))
		return
	}
	if err := s.mailer.Send(ctx, user.FullName(), user.Email, subject, body); err != nil {
		monitoring.NotificationFailures.WithLabelValues(template).Inc()
		logger.Log.Error("email send failed",
			zap.String("template", template),
			zap.String("to", user.Email),
			zap.Error(err))
	}
}

func (s *MailerService) SendEnrollmentConfirmation(ctx context.Context, student *model.User, course *model.Course) {
	s.send(ctx, "course-enrollment", student,
		fmt.Sprintf("You're enrolled in %s", course.Title),
		map[string]string{
			"firstName":  student.FirstName,
			"courseName": course.Title,
		})
}

func (s *MailerService) SendCompletionNotice(ctx context.Context, student *model.User, course *model.Course) {
	s.send(ctx, "course-completion", student,
		fmt.Sprintf("Congratulations on completing %s", course.Title),
		map[string]string{
			"firstName":  student.FirstName,
			"courseName": course.Title,
		})
}

// SendWelcome 注册欢迎邮件，按角色选择模板
func (s *MailerService) SendWelcome(ctx context.Context, user *model.User) {
	template := "welcome-student"
	if user.Role == model.RoleInstructor {
		template = "welcome-instructor"
	}
	s.send(ctx, template, user, "Welcome to the platform",
		map[string]string{"firstName": user.FirstName})
}
