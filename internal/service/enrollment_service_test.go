package service

import (
	"context"
	"errors"
	"lms_backend/internal/model"
	"lms_backend/internal/util"
	"testing"
	"time"

	"gorm.io/gorm"
)

// ---- fakes ----

type fakeEnrollmentStore struct {
	byID      map[uint]*model.CourseEnrollment
	nextID    uint
	completes int // Complete 调用次数
}

func newFakeEnrollmentStore() *fakeEnrollmentStore {
	return &fakeEnrollmentStore{byID: map[uint]*model.CourseEnrollment{}, nextID: 1}
}

func (f *fakeEnrollmentStore) Create(e *model.CourseEnrollment) error {
	e.ID = f.nextID
	f.nextID++
	copied := *e
	f.byID[e.ID] = &copied
	return nil
}

func (f *fakeEnrollmentStore) FindByPair(studentID, courseID uint) (*model.CourseEnrollment, error) {
	for _, e := range f.byID {
		if e.StudentID == studentID && e.CourseID == courseID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeEnrollmentStore) FindByID(id uint) (*model.CourseEnrollment, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *e
	return &copied, nil
}

func (f *fakeEnrollmentStore) ListByStudent(studentID uint) ([]model.CourseEnrollment, error) {
	var out []model.CourseEnrollment
	for _, e := range f.byID {
		if e.StudentID == studentID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEnrollmentStore) ListByCourse(courseID uint) ([]model.CourseEnrollment, error) {
	var out []model.CourseEnrollment
	for _, e := range f.byID {
		if e.CourseID == courseID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEnrollmentStore) SetProgress(id uint, progress float64) error {
	e, ok := f.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.Progress = progress
	e.Completed = false
	e.CompletedAt = nil
	return nil
}

func (f *fakeEnrollmentStore) Complete(id uint, progress float64, completedAt time.Time) (bool, error) {
	f.completes++
	e, ok := f.byID[id]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	e.Progress = progress
	if e.Completed {
		return false, nil
	}
	e.Completed = true
	e.CompletedAt = &completedAt
	return true, nil
}

func (f *fakeEnrollmentStore) FindCompleted(studentID, courseID uint) (*model.CourseEnrollment, error) {
	for _, e := range f.byID {
		if e.StudentID == studentID && e.CourseID == courseID && e.Completed {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeEnrollmentStore) ListCertified(studentID uint) ([]model.CourseEnrollment, error) {
	var out []model.CourseEnrollment
	for _, e := range f.byID {
		if e.StudentID == studentID && e.Completed && e.CertificateURL != "" {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEnrollmentStore) CountByCourse(courseID uint) (int64, error) {
	var n int64
	for _, e := range f.byID {
		if e.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

func (f *fakeEnrollmentStore) CountCompletedByCourse(courseID uint) (int64, error) {
	var n int64
	for _, e := range f.byID {
		if e.CourseID == courseID && e.Completed {
			n++
		}
	}
	return n, nil
}

func (f *fakeEnrollmentStore) CountRecentByCourse(courseID uint, since time.Time) (int64, error) {
	var n int64
	for _, e := range f.byID {
		if e.CourseID == courseID && e.EnrolledAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeEnrollmentStore) AverageProgressByCourse(courseID uint) (float64, error) {
	var sum float64
	var n int64
	for _, e := range f.byID {
		if e.CourseID == courseID {
			sum += e.Progress
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

type fakeCompletionStore struct {
	completions    map[[2]uint]*model.LessonCompletion // (student, lesson)
	lessonToCourse map[uint]uint
	lessonToModule map[uint]uint
}

func newFakeCompletionStore() *fakeCompletionStore {
	return &fakeCompletionStore{
		completions:    map[[2]uint]*model.LessonCompletion{},
		lessonToCourse: map[uint]uint{},
		lessonToModule: map[uint]uint{},
	}
}

func (f *fakeCompletionStore) Find(studentID, lessonID uint) (*model.LessonCompletion, error) {
	c, ok := f.completions[[2]uint{studentID, lessonID}]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (f *fakeCompletionStore) Create(c *model.LessonCompletion) error {
	key := [2]uint{c.StudentID, c.LessonID}
	if _, exists := f.completions[key]; exists {
		return errors.New("duplicate completion")
	}
	f.completions[key] = c
	return nil
}

func (f *fakeCompletionStore) CountForCourse(studentID, courseID uint) (int64, error) {
	var n int64
	for key := range f.completions {
		if key[0] == studentID && f.lessonToCourse[key[1]] == courseID {
			n++
		}
	}
	return n, nil
}

func (f *fakeCompletionStore) LessonIDsForCourse(studentID, courseID uint) ([]uint, error) {
	var ids []uint
	for key := range f.completions {
		if key[0] == studentID && f.lessonToCourse[key[1]] == courseID {
			ids = append(ids, key[1])
		}
	}
	return ids, nil
}

func (f *fakeCompletionStore) CountModulesTouched(studentID, courseID uint) (int64, error) {
	seen := map[uint]bool{}
	for key := range f.completions {
		if key[0] == studentID && f.lessonToCourse[key[1]] == courseID {
			seen[f.lessonToModule[key[1]]] = true
		}
	}
	return int64(len(seen)), nil
}

type fakeCourseStore struct {
	courses     map[uint]*model.Course
	lessons     map[uint]*model.Lesson
	lessonCount map[uint]int64
	moduleCount map[uint]int64
}

func newFakeCourseStore() *fakeCourseStore {
	return &fakeCourseStore{
		courses:     map[uint]*model.Course{},
		lessons:     map[uint]*model.Lesson{},
		lessonCount: map[uint]int64{},
		moduleCount: map[uint]int64{},
	}
}

func (f *fakeCourseStore) FindByID(id uint) (*model.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeCourseStore) FindLesson(id uint) (*model.Lesson, error) {
	l, ok := f.lessons[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return l, nil
}

func (f *fakeCourseStore) CountLessons(courseID uint) (int64, error) {
	return f.lessonCount[courseID], nil
}

func (f *fakeCourseStore) CountModules(courseID uint) (int64, error) {
	return f.moduleCount[courseID], nil
}

type fakeUserStore struct {
	users map[uint]*model.User
}

func (f *fakeUserStore) FindByID(id uint) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

type fakeIssuer struct {
	issued int
	err    error
}

func (f *fakeIssuer) Issue(ctx context.Context, e *model.CourseEnrollment, s *model.User, c *model.Course) error {
	f.issued++
	return f.err
}

type fakeNotifier struct {
	confirmations int
	completions   int
}

func (f *fakeNotifier) SendEnrollmentConfirmation(ctx context.Context, s *model.User, c *model.Course) {
	f.confirmations++
}

func (f *fakeNotifier) SendCompletionNotice(ctx context.Context, s *model.User, c *model.Course) {
	f.completions++
}

// ---- fixture ----

type engineFixture struct {
	svc         *EnrollmentService
	enrollments *fakeEnrollmentStore
	completions *fakeCompletionStore
	courses     *fakeCourseStore
	users       *fakeUserStore
	issuer      *fakeIssuer
	notifier    *fakeNotifier
}

// newEngineFixture 构造一门 3 课时 2 章节的课程和一个学生
func newEngineFixture() *engineFixture {
	enrollments := newFakeEnrollmentStore()
	completions := newFakeCompletionStore()
	courses := newFakeCourseStore()
	users := &fakeUserStore{users: map[uint]*model.User{
		1: {BaseModel: model.BaseModel{ID: 1}, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Role: model.RoleStudent},
	}}
	issuer := &fakeIssuer{}
	notifier := &fakeNotifier{}

	courses.courses[10] = &model.Course{BaseModel: model.BaseModel{ID: 10}, Title: "Go Basics", Price: 49}
	courses.lessonCount[10] = 3
	courses.moduleCount[10] = 2
	for lessonID, moduleID := range map[uint]uint{101: 201, 102: 201, 103: 202} {
		courses.lessons[lessonID] = &model.Lesson{
			BaseModel: model.BaseModel{ID: lessonID},
			ModuleID:  moduleID,
			Module:    model.CourseModule{BaseModel: model.BaseModel{ID: moduleID}, CourseID: 10},
		}
		completions.lessonToCourse[lessonID] = 10
		completions.lessonToModule[lessonID] = moduleID
	}

	return &engineFixture{
		svc:         NewEnrollmentService(enrollments, completions, courses, users, issuer, notifier),
		enrollments: enrollments,
		completions: completions,
		courses:     courses,
		users:       users,
		issuer:      issuer,
		notifier:    notifier,
	}
}

// ---- tests ----

func TestEnrollCreatesRecordAndSendsConfirmation(t *testing.T) {
	f := newEngineFixture()

	enrollment, err := f.svc.Enroll(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Enroll returned error: %v", err)
	}
	if enrollment.ID == 0 {
		t.Fatal("expected enrollment to be persisted with an id")
	}
	if enrollment.Progress != 0 || enrollment.Completed {
		t.Fatalf("new enrollment should start at zero progress, got %+v", enrollment)
	}
	if f.notifier.confirmations != 1 {
		t.Fatalf("expected one confirmation email, got %d", f.notifier.confirmations)
	}
}

func TestEnrollDuplicateReturnsConflict(t *testing.T) {
	f := newEngineFixture()

	if _, err := f.svc.Enroll(context.Background(), 1, 10); err != nil {
		t.Fatalf("first enroll failed: %v", err)
	}
	_, err := f.svc.Enroll(context.Background(), 1, 10)
	if !errors.Is(err, util.ErrAlreadyEnrolled) {
		t.Fatalf("expected ErrAlreadyEnrolled, got %v", err)
	}
}

func TestEnrollUnknownCourse(t *testing.T) {
	f := newEngineFixture()

	_, err := f.svc.Enroll(context.Background(), 1, 999)
	if !errors.Is(err, util.ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestMarkLessonCompleteRecomputesProgress(t *testing.T) {
	f := newEngineFixture()
	f.svc.Enroll(context.Background(), 1, 10)

	if _, err := f.svc.MarkLessonComplete(context.Background(), 1, 101); err != nil {
		t.Fatalf("MarkLessonComplete returned error: %v", err)
	}

	enrollment, _ := f.enrollments.FindByPair(1, 10)
	want := 100.0 / 3.0
	if diff := enrollment.Progress - want; diff > 0.001 || diff < -0.001 {
		t.Fatalf("progress = %f, want %f", enrollment.Progress, want)
	}
	if enrollment.Completed {
		t.Fatal("one of three lessons should not complete the course")
	}
}

func TestMarkLessonCompleteIsIdempotent(t *testing.T) {
	f := newEngineFixture()
	f.svc.Enroll(context.Background(), 1, 10)

	first, err := f.svc.MarkLessonComplete(context.Background(), 1, 101)
	if err != nil {
		t.Fatalf("first completion failed: %v", err)
	}
	second, err := f.svc.MarkLessonComplete(context.Background(), 1, 101)
	if err != nil {
		t.Fatalf("repeat completion should be a no-op, got %v", err)
	}
	if first != second {
		t.Fatal("repeat completion should return the existing record")
	}
	if n, _ := f.completions.CountForCourse(1, 10); n != 1 {
		t.Fatalf("expected 1 completion record, got %d", n)
	}
}

func TestMarkLessonCompleteRequiresEnrollment(t *testing.T) {
	f := newEngineFixture()

	_, err := f.svc.MarkLessonComplete(context.Background(), 1, 101)
	if !errors.Is(err, util.ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}
}

func TestMarkLessonCompleteUnknownLesson(t *testing.T) {
	f := newEngineFixture()
	f.svc.Enroll(context.Background(), 1, 10)

	_, err := f.svc.MarkLessonComplete(context.Background(), 1, 999)
	if !errors.Is(err, util.ErrLessonNotFound) {
		t.Fatalf("expected ErrLessonNotFound, got %v", err)
	}
}

func TestCompletingAllLessonsIssuesCertificateOnce(t *testing.T) {
	f := newEngineFixture()
	f.svc.Enroll(context.Background(), 1, 10)

	for _, lessonID := range []uint{101, 102, 103} {
		if _, err := f.svc.MarkLessonComplete(context.Background(), 1, lessonID); err != nil {
			t.Fatalf("lesson %d: %v", lessonID, err)
		}
	}

	enrollment, _ := f.enrollments.FindByPair(1, 10)
	if !enrollment.Completed || enrollment.Progress != 100 {
		t.Fatalf("expected completed enrollment at 100%%, got %+v", enrollment)
	}
	if enrollment.CompletedAt == nil {
		t.Fatal("CompletedAt should be set on completion")
	}
	if f.issuer.issued != 1 {
		t.Fatalf("certificate should be issued exactly once, got %d", f.issuer.issued)
	}
	if f.notifier.completions != 1 {
		t.Fatalf("completion email should be sent exactly once, got %d", f.notifier.completions)
	}
}

func TestDualCompletionPathsIssueOnce(t *testing.T) {
	f := newEngineFixture()
	f.svc.Enroll(context.Background(), 1, 10)

	// 路径一：课时重算触发结业
	for _, lessonID := range []uint{101, 102, 103} {
		f.svc.MarkLessonComplete(context.Background(), 1, lessonID)
	}
	// 路径二：直接进度写入再次命中 100
	enrollment, _ := f.enrollments.FindByPair(1, 10)
	if _, err := f.svc.UpdateProgress(context.Background(), enrollment.ID, 100); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}

	if f.issuer.issued != 1 {
		t.Fatalf("second completion trigger must not reissue, got %d issues", f.issuer.issued)
	}
	if f.notifier.completions != 1 {
		t.Fatalf("second completion trigger must not renotify, got %d notices", f.notifier.completions)
	}
}

func TestUpdateProgressValidatesRange(t *testing.T) {
	f := newEngineFixture()
	f.svc.Enroll(context.Background(), 1, 10)

	for _, progress := range []float64{-1, 100.5, 200} {
		_, err := f.svc.UpdateProgress(context.Background(), 1, progress)
		if !errors.Is(err, util.ErrInvalidProgress) {
			t.Fatalf("progress %f: expected ErrInvalidProgress, got %v", progress, err)
		}
	}
}

func TestUpdateProgressUnknownEnrollment(t *testing.T) {
	f := newEngineFixture()

	_, err := f.svc.UpdateProgress(context.Background(), 42, 50)
	if !errors.Is(err, util.ErrEnrollmentNotFound) {
		t.Fatalf("expected ErrEnrollmentNotFound, got %v", err)
	}
}

func TestUpdateProgressBelowHundredClearsCompletion(t *testing.T) {
	f := newEngineFixture()
	f.svc.Enroll(context.Background(), 1, 10)
	enrollment, _ := f.enrollments.FindByPair(1, 10)

	if _, err := f.svc.UpdateProgress(context.Background(), enrollment.ID, 100); err != nil {
		t.Fatalf("UpdateProgress to 100 failed: %v", err)
	}
	updated, err := f.svc.UpdateProgress(context.Background(), enrollment.ID, 60)
	if err != nil {
		t.Fatalf("UpdateProgress to 60 failed: %v", err)
	}

	if updated.Completed || updated.CompletedAt != nil {
		t.Fatalf("dropping below 100 must clear completion, got %+v", updated)
	}
	stored, _ := f.enrollments.FindByPair(1, 10)
	if stored.Completed || stored.Progress != 60 {
		t.Fatalf("stored enrollment not reset, got %+v", stored)
	}
}

func TestCertificateFailureDoesNotRollBackCompletion(t *testing.T) {
	f := newEngineFixture()
	f.issuer.err = errors.New("renderer unavailable")
	f.svc.Enroll(context.Background(), 1, 10)
	enrollment, _ := f.enrollments.FindByPair(1, 10)

	if _, err := f.svc.UpdateProgress(context.Background(), enrollment.ID, 100); err != nil {
		t.Fatalf("completion must succeed despite issuer failure, got %v", err)
	}
	stored, _ := f.enrollments.FindByPair(1, 10)
	if !stored.Completed {
		t.Fatal("completion state must not be rolled back on certificate failure")
	}
	if f.notifier.completions != 1 {
		t.Fatal("completion email still goes out when issuance fails")
	}
}

func TestZeroLessonCourseNeverAutoCompletes(t *testing.T) {
	f := newEngineFixture()
	f.courses.courses[20] = &model.Course{BaseModel: model.BaseModel{ID: 20}, Title: "Empty"}
	f.courses.lessonCount[20] = 0
	f.svc.Enroll(context.Background(), 1, 20)
	enrollment, _ := f.enrollments.FindByPair(1, 20)

	// 直接触发重算：没有课时，进度保持 0
	if err := f.svc.recomputeProgress(context.Background(), enrollment, 1, 20); err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	stored, _ := f.enrollments.FindByPair(1, 20)
	if stored.Progress != 0 || stored.Completed {
		t.Fatalf("zero-lesson course must stay at 0%%, got %+v", stored)
	}
	if f.issuer.issued != 0 {
		t.Fatal("no certificate for an empty course")
	}
}

func TestGetStudentProgressReport(t *testing.T) {
	f := newEngineFixture()
	f.svc.Enroll(context.Background(), 1, 10)
	f.svc.MarkLessonComplete(context.Background(), 1, 101)
	f.svc.MarkLessonComplete(context.Background(), 1, 103)

	report, err := f.svc.GetStudentProgress(1, 10)
	if err != nil {
		t.Fatalf("GetStudentProgress failed: %v", err)
	}
	if report.TotalLessons != 3 || report.CompletedLessons != 2 {
		t.Fatalf("lesson counts wrong: %+v", report)
	}
	if report.TotalModules != 2 || report.CompletedModules != 2 {
		t.Fatalf("module counts wrong: %+v", report)
	}
	if len(report.CompletedLessonIDs) != 2 {
		t.Fatalf("expected 2 completed lesson ids, got %v", report.CompletedLessonIDs)
	}
}

func TestGetStudentProgressWithoutEnrollment(t *testing.T) {
	f := newEngineFixture()

	_, err := f.svc.GetStudentProgress(1, 10)
	if !errors.Is(err, util.ErrEnrollmentNotFound) {
		t.Fatalf("expected ErrEnrollmentNotFound, got %v", err)
	}
}

func TestGetCompletedEnrollmentNilUntilCompleted(t *testing.T) {
	f := newEngineFixture()
	f.svc.Enroll(context.Background(), 1, 10)

	got, err := f.svc.GetCompletedEnrollment(1, 10)
	if err != nil || got != nil {
		t.Fatalf("incomplete enrollment should yield (nil, nil), got (%v, %v)", got, err)
	}

	enrollment, _ := f.enrollments.FindByPair(1, 10)
	f.svc.UpdateProgress(context.Background(), enrollment.ID, 100)

	got, err = f.svc.GetCompletedEnrollment(1, 10)
	if err != nil || got == nil {
		t.Fatalf("completed enrollment should be returned, got (%v, %v)", got, err)
	}
}

func TestGetEnrollmentStats(t *testing.T) {
	f := newEngineFixture()
	f.users.users[2] = &model.User{BaseModel: model.BaseModel{ID: 2}, FirstName: "Alan", Email: "alan@example.com"}
	f.svc.Enroll(context.Background(), 1, 10)
	f.svc.Enroll(context.Background(), 2, 10)

	e1, _ := f.enrollments.FindByPair(1, 10)
	f.svc.UpdateProgress(context.Background(), e1.ID, 100)

	stats, err := f.svc.GetEnrollmentStats(10)
	if err != nil {
		t.Fatalf("GetEnrollmentStats failed: %v", err)
	}
	if stats.TotalEnrollments != 2 || stats.CompletedEnrollments != 1 {
		t.Fatalf("counts wrong: %+v", stats)
	}
	if stats.AverageProgress != 50 {
		t.Fatalf("average progress = %f, want 50", stats.AverageProgress)
	}
}
