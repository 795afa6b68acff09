package service

import (
	"context"
	"errors"
	"lms_backend/internal/model"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EnrollmentStore 选课记录的持久化入口。Complete 是条件更新：只有
// completed = false 的行会被置为已完成，返回值指示本次调用是否触发了跃迁。
type EnrollmentStore interface {
	Create(enrollment *model.CourseEnrollment) error
	FindByPair(studentID, courseID uint) (*model.CourseEnrollment, error)
	FindByID(id uint) (*model.CourseEnrollment, error)
	ListByStudent(studentID uint) ([]model.CourseEnrollment, error)
	ListByCourse(courseID uint) ([]model.CourseEnrollment, error)
	SetProgress(id uint, progress float64) error
	Complete(id uint, progress float64, completedAt time.Time) (bool, error)
	FindCompleted(studentID, courseID uint) (*model.CourseEnrollment, error)
	ListCertified(studentID uint) ([]model.CourseEnrollment, error)
	CountByCourse(courseID uint) (int64, error)
	CountCompletedByCourse(courseID uint) (int64, error)
	CountRecentByCourse(courseID uint, since time.Time) (int64, error)
	AverageProgressByCourse(courseID uint) (float64, error)
}

// CompletionStore 课时完成记录，(student, lesson) 唯一且不可变
type CompletionStore interface {
	Find(studentID, lessonID uint) (*model.LessonCompletion, error)
	Create(completion *model.LessonCompletion) error
	CountForCourse(studentID, courseID uint) (int64, error)
	LessonIDsForCourse(studentID, courseID uint) ([]uint, error)
	CountModulesTouched(studentID, courseID uint) (int64, error)
}

// CourseStore 进度计算所需的课程结构查询
type CourseStore interface {
	FindByID(id uint) (*model.Course, error)
	FindLesson(id uint) (*model.Lesson, error)
	CountLessons(courseID uint) (int64, error)
	CountModules(courseID uint) (int64, error)
}

type UserStore interface {
	FindByID(id uint) (*model.User, error)
}

// CertificateIssuer 结业证书签发。实现方自行记录失败指标，
// 调用方只做日志，不回滚完成状态。
type CertificateIssuer interface {
	Issue(ctx context.Context, enrollment *model.CourseEnrollment, student *model.User, course *model.Course) error
}

// Notifier 邮件通知，尽力而为：实现方吞掉错误并计数
type Notifier interface {
	SendEnrollmentConfirmation(ctx context.Context, student *model.User, course *model.Course)
	SendCompletionNotice(ctx context.Context, student *model.User, course *model.Course)
}

// ProgressReport 学生在单门课程上的进度明细
type ProgressReport struct {
	Enrollment         *model.CourseEnrollment `json:"enrollment"`
	TotalLessons       int64                   `json:"totalLessons"`
	CompletedLessons   int64                   `json:"completedLessons"`
	TotalModules       int64                   `json:"totalModules"`
	CompletedModules   int64                   `json:"completedModules"`
	CompletedLessonIDs []uint                  `json:"completedLessonIds"`
}

// EnrollmentStats 课程维度的选课统计
type EnrollmentStats struct {
	TotalEnrollments     int64   `json:"totalEnrollments"`
	CompletedEnrollments int64   `json:"completedEnrollments"`
	AverageProgress      float64 `json:"averageProgress"`
	RecentEnrollments    int64   `json:"recentEnrollments"`
}

type EnrollmentService struct {
	enrollments EnrollmentStore
	completions CompletionStore
	courses     CourseStore
	users       UserStore
	issuer      CertificateIssuer
	notifier    Notifier
}

func NewEnrollmentService(
	enrollments EnrollmentStore,
	completions CompletionStore,
	courses CourseStore,
	users UserStore,
	issuer CertificateIssuer,
	notifier Notifier,
) *EnrollmentService {
	return &EnrollmentService{
		enrollments: enrollments,
		completions: completions,
		courses:     courses,
		users:       users,
		issuer:      issuer,
		notifier:    notifier,
	}
}

// Enroll 学生报名课程。重复报名返回 ErrAlreadyEnrolled；
// 报名确认邮件是尽力而为，失败不影响报名结果。
func (s *EnrollmentService) Enroll(ctx context.Context, studentID, courseID uint) (*model.CourseEnrollment, error) {
	course, err := s.courses.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	existing, err := s.enrollments.FindByPair(studentID, courseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, util.ErrAlreadyEnrolled
	}

	enrollment := &model.CourseEnrollment{
		StudentID: studentID,
		CourseID:  courseID,
	}
	if err := s.enrollments.Create(enrollment); err != nil {
		return nil, err
	}
	logger.Log.Info("student enrolled",
		zap.Uint("student_id", studentID),
		zap.Uint("course_id", courseID))

	if student, err := s.users.FindByID(studentID); err == nil {
		s.notifier.SendEnrollmentConfirmation(ctx, student, course)
	} else {
		logger.Log.Warn("skip enrollment confirmation, student lookup failed",
			zap.Uint("student_id", studentID), zap.Error(err))
	}
	return enrollment, nil
}

// MarkLessonComplete 标记课时完成。同一 (student, lesson) 重复标记幂等，
// 只有首次创建才触发课程进度重算。
func (s *EnrollmentService) MarkLessonComplete(ctx context.Context, studentID, lessonID uint) (*model.LessonCompletion, error) {
	lesson, err := s.courses.FindLesson(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}
	courseID := lesson.Module.CourseID

	enrollment, err := s.enrollments.FindByPair(studentID, courseID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, util.ErrNotEnrolled
	}

	existing, err := s.completions.Find(studentID, lessonID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	completion := &model.LessonCompletion{
		StudentID: studentID,
		LessonID:  lessonID,
	}
	if err := s.completions.Create(completion); err != nil {
		return nil, err
	}

	if err := s.recomputeProgress(ctx, enrollment, studentID, courseID); err != nil {
		return nil, err
	}
	return completion, nil
}

// recomputeProgress 按已完成课时数重算进度：progress = completed/total*100，
// 课程没有任何课时时进度为 0，永远不会自动结业。
func (s *EnrollmentService) recomputeProgress(ctx context.Context, enrollment *model.CourseEnrollment, studentID, courseID uint) error {
	total, err := s.courses.CountLessons(courseID)
	if err != nil {
		return err
	}
	completed, err := s.completions.CountForCourse(studentID, courseID)
	if err != nil {
		return err
	}

	progress := 0.0
	if total > 0 {
		progress = float64(completed) / float64(total) * 100
	}
	return s.applyProgress(ctx, enrollment, progress)
}

// UpdateProgress 直接写入进度百分比。progress ≥ 100 结业并走签发流程，
// 小于 100 会清空已结业状态与结业时间。
func (s *EnrollmentService) UpdateProgress(ctx context.Context, enrollmentID uint, progress float64) (*model.CourseEnrollment, error) {
	if progress < 0 || progress > 100 {
		return nil, util.ErrInvalidProgress
	}
	enrollment, err := s.enrollments.FindByID(enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}
	if err := s.applyProgress(ctx, enrollment, progress); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// applyProgress 两条完成路径（课时重算 / 直接更新）共用的落库逻辑。
// 结业跃迁由仓储层的条件更新裁决，拿到 true 的调用方独占证书签发。
func (s *EnrollmentService) applyProgress(ctx context.Context, enrollment *model.CourseEnrollment, progress float64) error {
	if progress >= 100 {
		now := time.Now()
		transitioned, err := s.enrollments.Complete(enrollment.ID, progress, now)
		if err != nil {
			return err
		}
		enrollment.Progress = progress
		enrollment.Completed = true
		if enrollment.CompletedAt == nil {
			enrollment.CompletedAt = &now
		}
		if transitioned {
			s.onCompleted(ctx, enrollment)
		}
		return nil
	}

	if err := s.enrollments.SetProgress(enrollment.ID, progress); err != nil {
		return err
	}
	enrollment.Progress = progress
	enrollment.Completed = false
	enrollment.CompletedAt = nil
	return nil
}

// onCompleted 结业后的副作用：证书签发与结业邮件都是尽力而为，
// 任何失败只记日志，完成状态不回滚。
func (s *EnrollmentService) onCompleted(ctx context.Context, enrollment *model.CourseEnrollment) {
	student, err := s.users.FindByID(enrollment.StudentID)
	if err != nil {
		logger.Log.Error("completion side effects skipped, student lookup failed",
			zap.Uint("enrollment_id", enrollment.ID), zap.Error(err))
		return
	}
	course, err := s.courses.FindByID(enrollment.CourseID)
	if err != nil {
		logger.Log.Error("completion side effects skipped, course lookup failed",
			zap.Uint("enrollment_id", enrollment.ID), zap.Error(err))
		return
	}

	if err := s.issuer.Issue(ctx, enrollment, student, course); err != nil {
		logger.Log.Error("certificate issuance failed",
			zap.Uint("enrollment_id", enrollment.ID), zap.Error(err))
	}
	s.notifier.SendCompletionNotice(ctx, student, course)
}

// GetStudentProgress 学生在某课程的进度明细。completedModules 统计的是
// 至少完成过一个课时的章节数，口径偏宽，前端据此渲染章节勾选状态。
func (s *EnrollmentService) GetStudentProgress(studentID, courseID uint) (*ProgressReport, error) {
	enrollment, err := s.enrollments.FindByPair(studentID, courseID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, util.ErrEnrollmentNotFound
	}

	totalLessons, err := s.courses.CountLessons(courseID)
	if err != nil {
		return nil, err
	}
	completedLessons, err := s.completions.CountForCourse(studentID, courseID)
	if err != nil {
		return nil, err
	}
	totalModules, err := s.courses.CountModules(courseID)
	if err != nil {
		return nil, err
	}
	completedModules, err := s.completions.CountModulesTouched(studentID, courseID)
	if err != nil {
		return nil, err
	}
	lessonIDs, err := s.completions.LessonIDsForCourse(studentID, courseID)
	if err != nil {
		return nil, err
	}

	return &ProgressReport{
		Enrollment:         enrollment,
		TotalLessons:       totalLessons,
		CompletedLessons:   completedLessons,
		TotalModules:       totalModules,
		CompletedModules:   completedModules,
		CompletedLessonIDs: lessonIDs,
	}, nil
}

// GetEnrollmentStats 课程的选课统计，recent 为最近 7 天的新增报名
func (s *EnrollmentService) GetEnrollmentStats(courseID uint) (*EnrollmentStats, error) {
	if _, err := s.courses.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	total, err := s.enrollments.CountByCourse(courseID)
	if err != nil {
		return nil, err
	}
	completed, err := s.enrollments.CountCompletedByCourse(courseID)
	if err != nil {
		return nil, err
	}
	avg, err := s.enrollments.AverageProgressByCourse(courseID)
	if err != nil {
		return nil, err
	}
	recent, err := s.enrollments.CountRecentByCourse(courseID, time.Now().AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}

	return &EnrollmentStats{
		TotalEnrollments:     total,
		CompletedEnrollments: completed,
		AverageProgress:      avg,
		RecentEnrollments:    recent,
	}, nil
}

func (s *EnrollmentService) GetStudentEnrollments(studentID uint) ([]model.CourseEnrollment, error) {
	return s.enrollments.ListByStudent(studentID)
}

func (s *EnrollmentService) GetCourseEnrollments(courseID uint) ([]model.CourseEnrollment, error) {
	if _, err := s.courses.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return s.enrollments.ListByCourse(courseID)
}

// GetCompletedEnrollment 仅在已结业时返回选课记录，未结业返回 (nil, nil)
func (s *EnrollmentService) GetCompletedEnrollment(studentID, courseID uint) (*model.CourseEnrollment, error) {
	return s.enrollments.FindCompleted(studentID, courseID)
}

// ListCertificates 学生名下所有已生成证书的结业记录
func (s *EnrollmentService) ListCertificates(studentID uint) ([]model.CourseEnrollment, error) {
	return s.enrollments.ListCertified(studentID)
}
