package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/haxxxs/edu-back/internal/models"
)

type ProgressRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewProgressRepo(db *gorm.DB) *ProgressRepo {
	return &ProgressRepo{db: db, now: time.Now}
}

// ProgressSnapshot - прогресс вместе с множествами пройденного.
type ProgressSnapshot struct {
	models.UserProgress
	CompletedLessons   []uint
	CompletedPractices []uint
}

// CompletionResult описывает итог отметки урока.
type CompletionResult struct {
	Progress models.UserProgress
	// Added = false, если урок уже был отмечен.
	Added bool
	// Enrolled - у пользователя есть запись на курс, её прогресс обновлён.
	Enrolled bool
	// CourseCompleted - курс завершён именно этим вызовом.
	CourseCompleted bool
}

func ensureProgress(tx *gorm.DB, userID, courseID uint) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(&models.UserProgress{UserID: userID, CourseID: courseID}).Error
}

// lockProgress создаёт строку прогресса при необходимости и блокирует её
// до конца транзакции, чтобы параллельные отметки шли по очереди.
func lockProgress(tx *gorm.DB, userID, courseID uint) (models.UserProgress, error) {
	if err := ensureProgress(tx, userID, courseID); err != nil {
		return models.UserProgress{}, err
	}
	var p models.UserProgress
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&p).Error
	return p, err
}

// Get возвращает прогресс, создавая нулевую запись при первом обращении.
func (r *ProgressRepo) Get(ctx context.Context, userID, courseID uint) (ProgressSnapshot, error) {
	var snap ProgressSnapshot
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureProgress(tx, userID, courseID); err != nil {
			return err
		}
		if err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&snap.UserProgress).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.CompletedLesson{}).
			Where("user_id = ? AND course_id = ?", userID, courseID).
			Order("id ASC").Pluck("lesson_id", &snap.CompletedLessons).Error; err != nil {
			return err
		}
		return tx.Model(&models.CompletedPractice{}).
			Where("user_id = ? AND course_id = ?", userID, courseID).
			Order("id ASC").Pluck("block_id", &snap.CompletedPractices).Error
	})
	if snap.CompletedLessons == nil {
		snap.CompletedLessons = []uint{}
	}
	if snap.CompletedPractices == nil {
		snap.CompletedPractices = []uint{}
	}
	return snap, err
}

// CompleteLesson атомарно добавляет урок в множество пройденных
// и пересчитывает прогресс: пройдено / всего * 100.
func (r *ProgressRepo) CompleteLesson(ctx context.Context, userID, courseID, lessonID uint) (CompletionResult, error) {
	var res CompletionResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Блокируем строку прогресса
		p, err := lockProgress(tx, userID, courseID)
		if err != nil {
			return err
		}

		// 2. Вставка в множество, дубль игнорируется
		ins := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}, {Name: "lesson_id"}},
			DoNothing: true,
		}).Create(&models.CompletedLesson{UserID: userID, CourseID: courseID, LessonID: lessonID})
		if ins.Error != nil {
			return ins.Error
		}
		res.Added = ins.RowsAffected > 0

		// 3. Пересчёт
		total, err := CountLessons(tx, courseID)
		if err != nil {
			return err
		}
		var done int64
		if err := tx.Model(&models.CompletedLesson{}).
			Joins("JOIN lessons ON lessons.id = completed_lessons.lesson_id").
			Joins("JOIN modules ON modules.id = lessons.module_id").
			Where("completed_lessons.user_id = ? AND completed_lessons.course_id = ? AND modules.course_id = ?",
				userID, courseID, courseID).
			Count(&done).Error; err != nil {
			return err
		}

		p.Progress = Percent(done, total)
		p.LastAccessedLessonID = &lessonID
		if err := tx.Model(&p).Updates(map[string]any{
			"progress":                p.Progress,
			"last_accessed_lesson_id": lessonID,
		}).Error; err != nil {
			return err
		}
		res.Progress = p

		// 4. Запись на курс, если есть
		res.Enrolled, res.CourseCompleted, err = r.syncEnrollment(tx, userID, courseID, p.Progress)
		return err
	})
	return res, err
}

// Percent считает долю в процентах; пустой курс даёт 0.
func Percent(done, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(done) / float64(total) * 100
}

// syncEnrollment переносит прогресс в UserCourse и выдаёт сертификат на 100%.
func (r *ProgressRepo) syncEnrollment(tx *gorm.DB, userID, courseID uint, progress float64) (bool, bool, error) {
	var uc models.UserCourse
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&uc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}

	now := r.now()
	updates := map[string]any{
		"progress":         progress,
		"last_accessed_at": now,
	}
	completed := false
	if progress >= 100 && uc.Status != models.StatusCompleted {
		completed = true
		updates["status"] = models.StatusCompleted
		updates["completed_at"] = now
		if uc.CertificateID == nil {
			cert := models.Certificate{UserCourseID: uc.ID, Number: uuid.NewString(), IssuedAt: now}
			if err := tx.Create(&cert).Error; err != nil {
				return true, false, err
			}
			updates["certificate_id"] = cert.ID
		}
	}
	if err := tx.Model(&uc).Updates(updates).Error; err != nil {
		return true, false, err
	}
	return true, completed, nil
}

// CompletePractice идемпотентно отмечает практику выполненной.
func (r *ProgressRepo) CompletePractice(ctx context.Context, userID, courseID, blockID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureProgress(tx, userID, courseID); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}, {Name: "block_id"}},
			DoNothing: true,
		}).Create(&models.CompletedPractice{UserID: userID, CourseID: courseID, BlockID: blockID}).Error
	})
}

func (r *ProgressRepo) RecordAttempt(ctx context.Context, a *models.UserPracticeAttempt) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ProgressRepo) Attempts(ctx context.Context, userID, blockID uint) ([]models.UserPracticeAttempt, error) {
	var out []models.UserPracticeAttempt
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND block_id = ?", userID, blockID).
		Order("id ASC").Find(&out).Error
	return out, err
}
