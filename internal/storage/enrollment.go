package storage

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/haxxxs/edu-back/internal/apperr"
	"github.com/haxxxs/edu-back/internal/models"
)

type EnrollmentRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewEnrollmentRepo(db *gorm.DB) *EnrollmentRepo {
	return &EnrollmentRepo{db: db, now: time.Now}
}

// EnrolledCourse - строка списка курсов пользователя.
type EnrolledCourse struct {
	CourseID       uint
	Title          string
	CoverImage     string
	ImageURL       string
	Status         models.EnrollmentStatus
	CertificateID  *uint
	Progress       float64
	LastAccessedAt time.Time
}

type EnrollmentStats struct {
	Completed    int64
	Active       int64
	Certificates int64
}

// Create записывает пользователя на курс; повторная запись даёт Conflict.
func (r *EnrollmentRepo) Create(ctx context.Context, userID, courseID uint) (models.UserCourse, error) {
	now := r.now()
	uc := models.UserCourse{
		UserID:         userID,
		CourseID:       courseID,
		Status:         models.StatusInProgress,
		StartedAt:      now,
		LastAccessedAt: now,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Course{}, courseID).Error; err != nil {
			return notFound(err, "Course not found")
		}
		// подтягиваем уже накопленный прогресс
		var p models.UserProgress
		err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).Limit(1).Find(&p).Error
		if err != nil {
			return err
		}
		uc.Progress = p.Progress
		return tx.Create(&uc).Error
	})
	if IsUniqueViolation(err) {
		return models.UserCourse{}, &apperr.Error{Kind: apperr.Conflict, Message: "Already enrolled in this course", Err: err}
	}
	return uc, err
}

func (r *EnrollmentRepo) Get(ctx context.Context, userID, courseID uint) (models.UserCourse, error) {
	var uc models.UserCourse
	err := r.db.WithContext(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).First(&uc).Error
	return uc, notFound(err, "Enrollment not found")
}

func (r *EnrollmentRepo) byUser(ctx context.Context, userID uint, status models.EnrollmentStatus) *gorm.DB {
	q := r.db.WithContext(ctx).Table("user_courses").
		Joins("JOIN courses ON courses.id = user_courses.course_id").
		Where("user_courses.user_id = ?", userID)
	if status != "" {
		q = q.Where("user_courses.status = ?", status)
	}
	return q
}

// ListByUser: сначала по статусу (по убыванию), затем по последнему доступу.
func (r *EnrollmentRepo) ListByUser(ctx context.Context, userID uint, status models.EnrollmentStatus, limit, offset int) ([]EnrolledCourse, int64, error) {
	var total int64
	if err := r.byUser(ctx, userID, status).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := []EnrolledCourse{}
	err := r.byUser(ctx, userID, status).
		Select("user_courses.course_id, courses.title, courses.cover_image, courses.image_url, " +
			"user_courses.status, user_courses.certificate_id, user_courses.progress, user_courses.last_accessed_at").
		Order("user_courses.status DESC, user_courses.last_accessed_at DESC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	return rows, total, err
}

func (r *EnrollmentRepo) Stats(ctx context.Context, userID uint) (EnrollmentStats, error) {
	var s EnrollmentStats
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.UserCourse{}).Where("user_id = ?", userID)
	}
	if err := base().Where("status = ?", models.StatusCompleted).Count(&s.Completed).Error; err != nil {
		return s, err
	}
	if err := base().Where("status = ?", models.StatusInProgress).Count(&s.Active).Error; err != nil {
		return s, err
	}
	err := base().Where("certificate_id IS NOT NULL").Count(&s.Certificates).Error
	return s, err
}

// ListAll - все записи на курсы для админки.
func (r *EnrollmentRepo) ListAll(ctx context.Context, limit, offset int) ([]models.UserCourse, int64, error) {
	var (
		out   []models.UserCourse
		total int64
	)
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.UserCourse{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q := db.Preload("User").Preload("Course").Order("user_courses.id ASC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	err := q.Find(&out).Error
	return out, total, err
}

func (r *EnrollmentRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.UserCourse{}).Count(&n).Error
	return n, err
}

func (r *EnrollmentRepo) CountCertificates(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Certificate{}).Count(&n).Error
	return n, err
}

// Touch обновляет время последнего доступа к курсу.
func (r *EnrollmentRepo) Touch(ctx context.Context, userID, courseID uint) error {
	return r.db.WithContext(ctx).Model(&models.UserCourse{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Update("last_accessed_at", r.now()).Error
}
