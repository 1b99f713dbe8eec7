package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/haxxxs/edu-back/internal/apperr"
	"github.com/haxxxs/edu-back/internal/models"
	"github.com/haxxxs/edu-back/internal/storage"
)

const (
	msgLessonCompleted   = "Lesson marked as completed successfully"
	msgPracticeValidated = "Practice validated successfully"
	feedbackCorrect      = "Correct!"
	feedbackIncorrect    = "Incorrect. Please try again."
)

type CompleteLessonResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type PracticeResult struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	IsCorrect bool    `json:"is_correct"`
	Feedback  *string `json:"feedback"`
}

type CourseProgress struct {
	CompletedLessons   []uint  `json:"completed_lessons"`
	CompletedPractices []uint  `json:"completed_practices"`
	Progress           float64 `json:"progress"`
	LastAccessedLesson *uint   `json:"last_accessed_lesson"`
}

type ContentService struct {
	users       *storage.UserRepo
	courses     *storage.CourseRepo
	progress    *storage.ProgressRepo
	enrollments *storage.EnrollmentRepo
	cache       *enrollmentCache
	log         *zap.Logger
}

func NewContentService(users *storage.UserRepo, courses *storage.CourseRepo, progress *storage.ProgressRepo,
	enrollments *storage.EnrollmentRepo, ec *enrollmentCache, log *zap.Logger) *ContentService {
	return &ContentService{
		users:       users,
		courses:     courses,
		progress:    progress,
		enrollments: enrollments,
		cache:       ec,
		log:         log.Named("content"),
	}
}

// resolve проверяет, что пользователь и курс существуют.
// Выключенный курс для студента не существует.
func (s *ContentService) resolve(ctx context.Context, actor Actor, courseID uint) error {
	if _, err := s.users.GetByID(ctx, actor.UserID); err != nil {
		return err
	}
	active, err := s.courses.IsActive(ctx, courseID)
	if err != nil {
		return err
	}
	if !active && !actor.IsAdmin {
		return apperr.NotFoundf("Course not found")
	}
	return nil
}

// GetCourseContent отдаёт дерево модулей, уроков и блоков.
// Студент не видит регулярки проверки практик.
func (s *ContentService) GetCourseContent(ctx context.Context, actor Actor, courseID uint) (models.Course, error) {
	if _, err := s.users.GetByID(ctx, actor.UserID); err != nil {
		return models.Course{}, err
	}
	c, err := s.courses.GetContent(ctx, courseID)
	if err != nil {
		return models.Course{}, err
	}
	if !c.IsActive && !actor.IsAdmin {
		return models.Course{}, apperr.NotFoundf("Course not found")
	}
	if !actor.IsAdmin {
		for i := range c.Modules {
			for j := range c.Modules[i].Lessons {
				blocks := c.Modules[i].Lessons[j].ContentBlocks
				for k := range blocks {
					blocks[k] = blocks[k].ForStudent()
				}
			}
		}
	}
	// last_accessed_at - ключ сортировки списка курсов пользователя
	if err := s.enrollments.Touch(ctx, actor.UserID, courseID); err != nil {
		s.log.Warn("touch enrollment failed", zap.Uint("user_id", actor.UserID), zap.Uint("course_id", courseID), zap.Error(err))
	} else {
		s.cache.invalidateUser(ctx, actor.UserID)
	}
	return c, nil
}

// CompleteLesson идемпотентно отмечает урок и пересчитывает прогресс.
func (s *ContentService) CompleteLesson(ctx context.Context, actor Actor, courseID, lessonID uint) (CompleteLessonResult, error) {
	if err := s.resolve(ctx, actor, courseID); err != nil {
		return CompleteLessonResult{}, err
	}
	if _, err := s.courses.LessonInCourse(ctx, courseID, lessonID); err != nil {
		return CompleteLessonResult{}, err
	}

	res, err := s.progress.CompleteLesson(ctx, actor.UserID, courseID, lessonID)
	if err != nil {
		return CompleteLessonResult{}, err
	}
	if res.Enrolled {
		s.cache.invalidateUser(ctx, actor.UserID)
	}
	if res.CourseCompleted {
		s.log.Info("course completed", zap.Uint("user_id", actor.UserID), zap.Uint("course_id", courseID))
	}
	return CompleteLessonResult{Success: true, Message: msgLessonCompleted}, nil
}

// ValidatePractice сверяет ответ с регуляркой блока. Попытка пишется
// всегда; без регулярки ответ считается неверным и без отзыва.
func (s *ContentService) ValidatePractice(ctx context.Context, actor Actor, courseID, lessonID, blockID uint, answer string) (PracticeResult, error) {
	if err := s.resolve(ctx, actor, courseID); err != nil {
		return PracticeResult{}, err
	}
	if _, err := s.courses.LessonInCourse(ctx, courseID, lessonID); err != nil {
		return PracticeResult{}, err
	}
	block, err := s.courses.PracticeBlock(ctx, lessonID, blockID)
	if err != nil {
		return PracticeResult{}, err
	}
	practice, err := block.Practice()
	if err != nil {
		return PracticeResult{}, apperr.Wrap(err, "decode practice block")
	}

	var (
		isCorrect bool
		feedback  *string
	)
	re, err := practice.Pattern()
	if err != nil {
		return PracticeResult{}, apperr.Wrap(err, "compile validation regex")
	}
	if re != nil {
		isCorrect = re.MatchString(answer)
		fb := feedbackIncorrect
		if isCorrect {
			fb = feedbackCorrect
		}
		feedback = &fb
	}

	if err := s.progress.RecordAttempt(ctx, &models.UserPracticeAttempt{
		UserID:    actor.UserID,
		BlockID:   blockID,
		Answer:    answer,
		IsCorrect: isCorrect,
		Feedback:  feedback,
	}); err != nil {
		return PracticeResult{}, err
	}
	if isCorrect {
		if err := s.progress.CompletePractice(ctx, actor.UserID, courseID, blockID); err != nil {
			return PracticeResult{}, err
		}
	}

	return PracticeResult{
		Success:   true,
		Message:   msgPracticeValidated,
		IsCorrect: isCorrect,
		Feedback:  feedback,
	}, nil
}

// GetCourseProgress создаёт нулевой прогресс при первом обращении.
func (s *ContentService) GetCourseProgress(ctx context.Context, actor Actor, courseID uint) (CourseProgress, error) {
	if err := s.resolve(ctx, actor, courseID); err != nil {
		return CourseProgress{}, err
	}
	snap, err := s.progress.Get(ctx, actor.UserID, courseID)
	if err != nil {
		return CourseProgress{}, err
	}
	return CourseProgress{
		CompletedLessons:   snap.CompletedLessons,
		CompletedPractices: snap.CompletedPractices,
		Progress:           snap.Progress,
		LastAccessedLesson: snap.LastAccessedLessonID,
	}, nil
}
