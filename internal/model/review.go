package model

// CourseReview 课程评价，每个学生对一门课只能评一次
type CourseReview struct {
	BaseModel
	StudentID uint   `gorm:"index:idx_student_course_review,unique;not null" json:"studentId"`
	Student   User   `gorm:"foreignKey:StudentID" json:"student"`
	CourseID  uint   `gorm:"index:idx_student_course_review,unique;not null" json:"courseId"`
	Course    Course `gorm:"foreignKey:CourseID" json:"course"`
	Rating    int    `gorm:"not null" json:"rating"` // 1-5
	Comment   string `gorm:"type:text" json:"comment"`
}

func (CourseReview) TableName() string {
	return "course_reviews"
}
