package service

import (
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"time"
)

// AnalyticsService 平台与讲师的统计看板。管理员看全平台，
// 讲师只看自己名下课程，scope 解析由 resolveScope 统一处理。
type AnalyticsService struct {
	AnalyticsRepo *repository.AnalyticsRepository
	ReviewRepo    *repository.ReviewRepository
}

func NewAnalyticsService(analyticsRepo *repository.AnalyticsRepository, reviewRepo *repository.ReviewRepository) *AnalyticsService {
	return &AnalyticsService{
		AnalyticsRepo: analyticsRepo,
		ReviewRepo:    reviewRepo,
	}
}

// resolveScope 管理员的统计口径是全平台（instructorID 0），
// 讲师只统计自己的课程，其余角色一律拒绝
func resolveScope(role model.UserRole, userID uint) (uint, error) {
	switch role {
	case model.RoleAdmin:
		return 0, nil
	case model.RoleInstructor:
		return userID, nil
	default:
		return 0, util.ErrPermissionDenied
	}
}

// DashboardStats 看板首屏的核心指标
type DashboardStats struct {
	TotalUsers           int64             `json:"totalUsers,omitempty"`
	UsersByRole          []model.RoleCount `json:"usersByRole,omitempty"`
	TotalCourses         int64             `json:"totalCourses"`
	TotalEnrollments     int64             `json:"totalEnrollments"`
	CompletedEnrollments int64             `json:"completedEnrollments"`
	CompletionRate       float64           `json:"completionRate"`
	TotalRevenue         float64           `json:"totalRevenue"`
}

func (s *AnalyticsService) GetDashboardStats(role model.UserRole, userID uint) (*DashboardStats, error) {
	instructorID, err := resolveScope(role, userID)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{}
	if instructorID == 0 {
		if stats.TotalUsers, err = s.AnalyticsRepo.CountUsers(); err != nil {
			return nil, err
		}
		if stats.UsersByRole, err = s.AnalyticsRepo.CountUsersByRole(); err != nil {
			return nil, err
		}
	}
	if stats.TotalCourses, err = s.AnalyticsRepo.CountCourses(instructorID); err != nil {
		return nil, err
	}
	if stats.TotalEnrollments, err = s.AnalyticsRepo.CountEnrollments(instructorID); err != nil {
		return nil, err
	}
	if stats.CompletedEnrollments, err = s.AnalyticsRepo.CountCompletedEnrollments(instructorID); err != nil {
		return nil, err
	}
	if stats.TotalEnrollments > 0 {
		stats.CompletionRate = float64(stats.CompletedEnrollments) / float64(stats.TotalEnrollments) * 100
	}

	now := time.Now()
	if stats.TotalRevenue, err = s.AnalyticsRepo.Revenue(instructorID, time.Time{}, now); err != nil {
		return nil, err
	}
	return stats, nil
}

// GetTopCourses 按报名量排序的前 10 门课程
func (s *AnalyticsService) GetTopCourses(role model.UserRole, userID uint) ([]model.CourseStat, error) {
	instructorID, err := resolveScope(role, userID)
	if err != nil {
		return nil, err
	}
	return s.AnalyticsRepo.TopCourses(instructorID, 10)
}

// GetRevenueOverTime 最近 12 个自然月的逐月收入，含当月
func (s *AnalyticsService) GetRevenueOverTime(role model.UserRole, userID uint) ([]model.MonthlyRevenue, error) {
	instructorID, err := resolveScope(role, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	months := make([]model.MonthlyRevenue, 0, 12)
	for i := 11; i >= 0; i-- {
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)
		revenue, err := s.AnalyticsRepo.Revenue(instructorID, start, end)
		if err != nil {
			return nil, err
		}
		months = append(months, model.MonthlyRevenue{
			Month:   start.Format("2006-01"),
			Revenue: revenue,
		})
	}
	return months, nil
}

// InstructorStats 讲师主页的汇总指标
type InstructorStats struct {
	Courses       int64   `json:"courses"`
	TotalStudents int64   `json:"totalStudents"`
	TotalRevenue  float64 `json:"totalRevenue"`
}

// GetInstructorStats 管理员可查任意讲师，讲师只能查自己
func (s *AnalyticsService) GetInstructorStats(role model.UserRole, userID, instructorID uint) (*InstructorStats, error) {
	switch role {
	case model.RoleAdmin:
	case model.RoleInstructor:
		if userID != instructorID {
			return nil, util.ErrPermissionDenied
		}
	default:
		return nil, util.ErrPermissionDenied
	}

	stats := &InstructorStats{}
	var err error
	if stats.Courses, err = s.AnalyticsRepo.CountCourses(instructorID); err != nil {
		return nil, err
	}
	if stats.TotalStudents, err = s.AnalyticsRepo.CountEnrollments(instructorID); err != nil {
		return nil, err
	}
	// 口径是名下课程的标价总和，与逐月收入的按报名计费口径不同
	if stats.TotalRevenue, err = s.AnalyticsRepo.CoursePriceSum(instructorID); err != nil {
		return nil, err
	}
	return stats, nil
}

// GetStudentProgress 学生只能看自己的；讲师只看该学生在自己课程里的选课；
// 管理员不设限
func (s *AnalyticsService) GetStudentProgress(role model.UserRole, userID, studentID uint) ([]model.CourseEnrollment, error) {
	switch role {
	case model.RoleAdmin:
		return s.AnalyticsRepo.StudentEnrollments(studentID, 0)
	case model.RoleInstructor:
		return s.AnalyticsRepo.StudentEnrollments(studentID, userID)
	case model.RoleStudent:
		if userID != studentID {
			return nil, util.ErrPermissionDenied
		}
		return s.AnalyticsRepo.StudentEnrollments(studentID, 0)
	default:
		return nil, util.ErrPermissionDenied
	}
}

// ReviewsSummary 最近 30 天的评价概况
type ReviewsSummary struct {
	AverageRating float64             `json:"averageRating"`
	TotalReviews  int64               `json:"totalReviews"`
	ByRating      []model.RatingCount `json:"byRating"`
}

func (s *AnalyticsService) GetReviewsSummary(role model.UserRole, userID uint) (*ReviewsSummary, error) {
	if _, err := resolveScope(role, userID); err != nil {
		return nil, err
	}

	counts, err := s.ReviewRepo.RatingCounts(time.Now().AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}

	summary := &ReviewsSummary{ByRating: counts}
	var weighted int64
	for _, c := range counts {
		summary.TotalReviews += c.Count
		weighted += int64(c.Rating) * c.Count
	}
	if summary.TotalReviews > 0 {
		summary.AverageRating = float64(weighted) / float64(summary.TotalReviews)
	}
	return summary, nil
}
