package service

import (
	"context"
	"io"
	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"strings"
	"testing"
	"time"
)

func TestRenderCertificateHTMLSubstitutesTokens(t *testing.T) {
	html := RenderCertificateHTML("Ada Lovelace", "Go Basics", "January 2, 2026")

	for _, want := range []string{"Ada Lovelace", "Go Basics", "January 2, 2026"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered certificate missing %q", want)
		}
	}
	for _, token := range []string{"{{studentName}}", "{{courseName}}", "{{date}}"} {
		if strings.Contains(html, token) {
			t.Errorf("placeholder %s left unsubstituted", token)
		}
	}
}

func TestRenderCertificateHTMLLiteralReplacement(t *testing.T) {
	// 姓名按字面代入，模板本身可信，不做转义
	html := RenderCertificateHTML("O'Brien & Sons", "C++ <Advanced>", "May 1, 2026")
	if !strings.Contains(html, "O'Brien & Sons") {
		t.Error("name should be substituted verbatim")
	}
	if !strings.Contains(html, "C++ <Advanced>") {
		t.Error("course title should be substituted verbatim")
	}
}

type capturingRenderer struct {
	html string
}

func (r *capturingRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	r.html = html
	return []byte("%PDF"), nil
}

type memoryStorageProvider struct {
	objects map[string][]byte
}

func (p *memoryStorageProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	p.objects[filename] = data
	return "/files/" + filename, nil
}

func (p *memoryStorageProvider) Delete(ctx context.Context, filename string) error {
	delete(p.objects, filename)
	return nil
}

func (p *memoryStorageProvider) GetURL(filename string) string {
	return "/files/" + filename
}

type certURLRecorder struct {
	id  uint
	url string
}

func (r *certURLRecorder) SetCertificateURL(id uint, url string) error {
	r.id = id
	r.url = url
	return nil
}

func TestIssueDatesCertificateAtCallTime(t *testing.T) {
	renderer := &capturingRenderer{}
	storage := &StorageService{Provider: &memoryStorageProvider{objects: map[string][]byte{}}}
	store := &certURLRecorder{}
	cfg := &config.Config{}
	cfg.App.BackendURL = "https://api.example.com"
	svc := NewCertificateService(renderer, storage, store, cfg)

	// 很久以前结业：重新签发仍然落当天的日期
	completedAt := time.Date(2022, 3, 15, 12, 0, 0, 0, time.UTC)
	enrollment := &model.CourseEnrollment{
		BaseModel:   model.BaseModel{ID: 3},
		StudentID:   1,
		CourseID:    10,
		Completed:   true,
		CompletedAt: &completedAt,
	}
	student := &model.User{BaseModel: model.BaseModel{ID: 1}, FirstName: "Ada", LastName: "Lovelace"}
	course := &model.Course{BaseModel: model.BaseModel{ID: 10}, Title: "Go Basics"}

	if err := svc.Issue(context.Background(), enrollment, student, course); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	today := time.Now().Format("January 2, 2006")
	if !strings.Contains(renderer.html, today) {
		t.Errorf("certificate should carry the issue date %q", today)
	}
	if strings.Contains(renderer.html, "March 15, 2022") {
		t.Error("certificate must not carry the original completion date")
	}
	wantURL := "https://api.example.com/files/certificates/certificate-1-10.pdf"
	if store.url != wantURL || store.id != 3 {
		t.Errorf("persisted url = (%d, %q), want (3, %q)", store.id, store.url, wantURL)
	}
	if enrollment.CertificateURL != wantURL {
		t.Errorf("in-memory url = %q, want %q", enrollment.CertificateURL, wantURL)
	}
}

func TestCertificateObjectName(t *testing.T) {
	got := CertificateObjectName(7, 42)
	want := "certificates/certificate-7-42.pdf"
	if got != want {
		t.Fatalf("CertificateObjectName(7, 42) = %q, want %q", got, want)
	}
	// 同一对 (student, course) 重复签发必须落到同一对象
	if CertificateObjectName(7, 42) != got {
		t.Fatal("object name must be deterministic")
	}
}
