package models

import "time"

type EnrollmentStatus string

const (
	StatusInProgress EnrollmentStatus = "in_progress"
	StatusCompleted  EnrollmentStatus = "completed"
)

// UserCourse - запись пользователя на курс
type UserCourse struct {
	ID             uint             `gorm:"primarykey" json:"id"`
	UserID         uint             `gorm:"uniqueIndex:idx_user_courses_user_course;not null" json:"user_id"`
	CourseID       uint             `gorm:"uniqueIndex:idx_user_courses_user_course;not null" json:"course_id"`
	Progress       float64          `json:"progress"`
	Status         EnrollmentStatus `gorm:"size:20;index;not null" json:"status"`
	StartedAt      time.Time        `json:"started_at"`
	LastAccessedAt time.Time        `gorm:"index" json:"last_accessed_at"`
	CompletedAt    *time.Time       `json:"completed_at"`
	CertificateID  *uint            `json:"certificate_id"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	User   User   `json:"-" gorm:"foreignKey:UserID"`
	Course Course `json:"-" gorm:"foreignKey:CourseID"`
}

// Certificate выдаётся за завершённый курс, один на запись.
type Certificate struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	UserCourseID uint      `gorm:"uniqueIndex:idx_certificates_user_course;not null" json:"user_course_id"`
	Number       string    `gorm:"size:36;uniqueIndex:idx_certificates_number;not null" json:"number"`
	IssuedAt     time.Time `json:"issued_at"`
}
