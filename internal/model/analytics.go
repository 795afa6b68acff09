package model

// RoleCount 按角色分组的用户数量
type RoleCount struct {
	Role  UserRole `json:"role"`
	Count int64    `json:"count"`
}

// CourseStat 课程维度的报名与收入聚合
type CourseStat struct {
	CourseID    uint    `json:"courseId"`
	Title       string  `json:"title"`
	Enrollments int64   `json:"enrollments"`
	Revenue     float64 `json:"revenue"`
}

// RatingCount 按评分档分组的评价数量
type RatingCount struct {
	Rating int   `json:"rating"`
	Count  int64 `json:"count"`
}

// MonthlyRevenue 单个自然月的收入汇总
type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}
