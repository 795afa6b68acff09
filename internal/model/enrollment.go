package model

import (
	"time"
)

// CourseEnrollment 学生与课程的选课记录，跟踪进度与结业状态。
// (student_id, course_id) 全局唯一；Completed 为 true 当且仅当 Progress >= 100，
// CompletedAt 只在 false→true 跃迁时写入。
type CourseEnrollment struct {
	BaseModel
	StudentID      uint       `gorm:"index:idx_student_course,unique;not null" json:"studentId"`
	Student        User       `gorm:"foreignKey:StudentID" json:"student"`
	CourseID       uint       `gorm:"index:idx_student_course,unique;not null" json:"courseId"`
	Course         Course     `gorm:"foreignKey:CourseID" json:"course"`
	EnrolledAt     time.Time  `gorm:"autoCreateTime" json:"enrolledAt"`
	Progress       float64    `gorm:"default:0" json:"progress"`
	Completed      bool       `gorm:"default:false" json:"completed"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	CertificateURL string     `gorm:"size:255" json:"certificateUrl,omitempty"`
}

func (CourseEnrollment) TableName() string {
	return "course_enrollments"
}

// LessonCompletion 学生完成某课时的事实记录，创建后不可变。
// (student_id, lesson_id) 唯一，重复标记是幂等的。
type LessonCompletion struct {
	BaseModel
	StudentID   uint      `gorm:"index:idx_student_lesson,unique;not null" json:"studentId"`
	LessonID    uint      `gorm:"index:idx_student_lesson,unique;not null" json:"lessonId"`
	CompletedAt time.Time `gorm:"autoCreateTime" json:"completedAt"`
}

func (LessonCompletion) TableName() string {
	return "lesson_completions"
}
