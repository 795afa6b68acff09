package service

import (
	"context"
	"errors"
	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"strings"
	"testing"
)

var errTransport = errors.New("smtp unreachable")

type recordingMailer struct {
	sends []recordedMail
	err   error
}

type recordedMail struct {
	toName  string
	toEmail string
	subject string
	body    string
}

func (m *recordingMailer) Send(ctx context.Context, toName, toEmail, subject, htmlBody string) error {
	m.sends = append(m.sends, recordedMail{toName, toEmail, subject, htmlBody})
	return m.err
}

func newTestMailerService(mailer Mailer) *MailerService {
	cfg := &config.Config{}
	cfg.App.FrontendURL = "https://learn.example.com"
	cfg.Mail.SupportEmail = "support@example.com"
	return &MailerService{mailer: mailer, cfg: cfg}
}

func TestRenderTemplateSubstitutesVariables(t *testing.T) {
	svc := newTestMailerService(&ConsoleMailer{})

	body, err := svc.renderTemplate("course-enrollment", map[string]string{
		"firstName":  "Ada",
		"courseName": "Go Basics",
	})
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}
	for _, want := range []string{"Ada", "Go Basics", "https://learn.example.com", "support@example.com"} {
		if !strings.Contains(body, want) {
			t.Errorf("rendered email missing %q", want)
		}
	}
	if strings.Contains(body, "{{") {
		t.Error("rendered email still contains unsubstituted placeholders")
	}
}

func TestRenderTemplateUnknownName(t *testing.T) {
	svc := newTestMailerService(&ConsoleMailer{})

	if _, err := svc.renderTemplate("no-such-template", map[string]string{}); err == nil {
		t.Fatal("expected an error for a missing template")
	}
}

func TestSendEnrollmentConfirmation(t *testing.T) {
	mailer := &recordingMailer{}
	svc := newTestMailerService(mailer)
	student := &model.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	course := &model.Course{Title: "Go Basics"}

	svc.SendEnrollmentConfirmation(context.Background(), student, course)

	if len(mailer.sends) != 1 {
		t.Fatalf("expected 1 send, got %d", len(mailer.sends))
	}
	sent := mailer.sends[0]
	if sent.toEmail != "ada@example.com" || sent.toName != "Ada Lovelace" {
		t.Fatalf("wrong recipient: %+v", sent)
	}
	if !strings.Contains(sent.subject, "Go Basics") {
		t.Fatalf("subject should name the course, got %q", sent.subject)
	}
}

func TestSendWelcomePicksTemplateByRole(t *testing.T) {
	tests := []struct {
		role model.UserRole
		want string
	}{
		{model.RoleStudent, "student account"},
		{model.RoleInstructor, "instructor account"},
		{model.RoleAdmin, "student account"},
	}
	for _, tt := range tests {
		mailer := &recordingMailer{}
		svc := newTestMailerService(mailer)
		user := &model.User{FirstName: "Sam", Email: "sam@example.com", Role: tt.role}

		svc.SendWelcome(context.Background(), user)

		if len(mailer.sends) != 1 {
			t.Fatalf("role %s: expected 1 send, got %d", tt.role, len(mailer.sends))
		}
		if !strings.Contains(strings.ToLower(mailer.sends[0].body), tt.want) {
			t.Errorf("role %s: welcome body should mention %q", tt.role, tt.want)
		}
	}
}

func TestSendFailureIsSwallowed(t *testing.T) {
	mailer := &recordingMailer{err: errTransport}
	svc := newTestMailerService(mailer)
	student := &model.User{FirstName: "Ada", Email: "ada@example.com"}
	course := &model.Course{Title: "Go Basics"}

	// 发送失败只计数记日志，不会 panic 也没有错误冒泡
	svc.SendCompletionNotice(context.Background(), student, course)

	if len(mailer.sends) != 1 {
		t.Fatalf("send should still be attempted, got %d", len(mailer.sends))
	}
}

func TestConsoleMailerNeverFails(t *testing.T) {
	m := &ConsoleMailer{}
	if err := m.Send(context.Background(), "Ada", "ada@example.com", "hi", "<p>hello</p>"); err != nil {
		t.Fatalf("console mailer returned error: %v", err)
	}
}

func TestNewMailerServiceProviderSelection(t *testing.T) {
	cfg := &config.Config{}
	cfg.Mail.Provider = "sendgrid"
	cfg.Mail.SendGridKey = "SG.test"
	if _, ok := NewMailerService(cfg).mailer.(*SendGridMailer); !ok {
		t.Error("sendgrid provider with a key should use SendGridMailer")
	}

	cfg.Mail.SendGridKey = ""
	if _, ok := NewMailerService(cfg).mailer.(*ConsoleMailer); !ok {
		t.Error("missing key should fall back to ConsoleMailer")
	}
}
