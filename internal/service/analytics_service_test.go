package service

import (
	"errors"
	"lms_backend/internal/model"
	"lms_backend/internal/util"
	"testing"
)

func TestResolveScope(t *testing.T) {
	tests := []struct {
		role    model.UserRole
		userID  uint
		want    uint
		wantErr error
	}{
		{model.RoleAdmin, 7, 0, nil},
		{model.RoleInstructor, 7, 7, nil},
		{model.RoleStudent, 7, 0, util.ErrPermissionDenied},
		{model.UserRole("visitor"), 7, 0, util.ErrPermissionDenied},
	}
	for _, tt := range tests {
		got, err := resolveScope(tt.role, tt.userID)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("resolveScope(%s): error = %v, want %v", tt.role, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("resolveScope(%s) = %d, want %d", tt.role, got, tt.want)
		}
	}
}

func TestInstructorStatsOwnOnly(t *testing.T) {
	svc := NewAnalyticsService(nil, nil)

	if _, err := svc.GetInstructorStats(model.RoleInstructor, 1, 2); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("instructor viewing another instructor: expected ErrPermissionDenied, got %v", err)
	}
	if _, err := svc.GetInstructorStats(model.RoleStudent, 1, 1); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("student: expected ErrPermissionDenied, got %v", err)
	}
}

func TestStudentProgressOverviewScope(t *testing.T) {
	svc := NewAnalyticsService(nil, nil)

	if _, err := svc.GetStudentProgress(model.RoleStudent, 1, 2); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("student viewing another student: expected ErrPermissionDenied, got %v", err)
	}
	if _, err := svc.GetStudentProgress(model.UserRole("visitor"), 1, 1); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("unknown role: expected ErrPermissionDenied, got %v", err)
	}
}

func TestStudentCannotAccessDashboards(t *testing.T) {
	// 权限校验在触达任何仓储前完成，零依赖的服务也不会崩
	svc := NewAnalyticsService(nil, nil)

	if _, err := svc.GetDashboardStats(model.RoleStudent, 1); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("GetDashboardStats: expected ErrPermissionDenied, got %v", err)
	}
	if _, err := svc.GetTopCourses(model.RoleStudent, 1); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("GetTopCourses: expected ErrPermissionDenied, got %v", err)
	}
	if _, err := svc.GetRevenueOverTime(model.RoleStudent, 1); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("GetRevenueOverTime: expected ErrPermissionDenied, got %v", err)
	}
	if _, err := svc.GetReviewsSummary(model.RoleStudent, 1); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("GetReviewsSummary: expected ErrPermissionDenied, got %v", err)
	}
}
