package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/haxxxs/edu-back/internal/apperr"
	"github.com/haxxxs/edu-back/internal/models"
	"github.com/haxxxs/edu-back/internal/storage"
	"github.com/haxxxs/edu-back/internal/testutil/memdb"
)

func seedUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	u := models.User{Email: email, Name: "U", Role: models.RoleStudent, IsActive: true}
	require.NoError(t, storage.NewUserRepo(db).Create(context.Background(), &u))
	return u
}

// seedCourse создаёт курс с одним модулем и n уроками.
func seedCourse(t *testing.T, db *gorm.DB, title string, n int) models.Course {
	t.Helper()
	c := models.Course{Title: title, Level: models.LevelBeginner, IsActive: true}
	m := models.Module{Title: "M1"}
	for i := 0; i < n; i++ {
		m.Lessons = append(m.Lessons, models.Lesson{Title: "L", Type: models.LessonTheory, Position: i})
	}
	m.LessonsCount = n
	c.Modules = []models.Module{m}
	require.NoError(t, storage.NewCourseRepo(db).Create(context.Background(), &c))
	return c
}

func TestUserCreateConflicts(t *testing.T) {
	db := memdb.Open(t)
	repo := storage.NewUserRepo(db)
	ctx := context.Background()

	tg := "@someone_ok"
	require.NoError(t, repo.Create(ctx, &models.User{Email: "a@x.io", Role: models.RoleStudent, TelegramID: &tg}))

	err := repo.Create(ctx, &models.User{Email: "A@x.io", Role: models.RoleStudent})
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.Conflict, e.Kind)
	assert.Equal(t, "Email already registered", e.Message)

	err = repo.Create(ctx, &models.User{Email: "b@x.io", Role: models.RoleStudent, TelegramID: &tg})
	e, ok = apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "Telegram ID already registered", e.Message)
}

func TestSaveGoogleUserLinksByEmail(t *testing.T) {
	db := memdb.Open(t)
	repo := storage.NewUserRepo(db)
	ctx := context.Background()

	u := seedUser(t, db, "g@x.io")
	linked, err := repo.SaveGoogleUser(ctx, "gid-1", "G@x.io", "Gee", "https://pic")
	require.NoError(t, err)
	assert.Equal(t, u.ID, linked.ID)

	again, err := repo.SaveGoogleUser(ctx, "gid-1", "g@x.io", "Gee 2", "")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "Gee 2", again.Name)

	fresh, err := repo.SaveGoogleUser(ctx, "gid-2", "new@x.io", "New", "")
	require.NoError(t, err)
	assert.NotEqual(t, u.ID, fresh.ID)
	assert.True(t, fresh.IsActive)
}

func TestCompleteLessonIsIdempotent(t *testing.T) {
	db := memdb.Open(t)
	ctx := context.Background()
	u := seedUser(t, db, "p@x.io")
	c := seedCourse(t, db, "Go", 4)
	lesson := c.Modules[0].Lessons[0]

	repo := storage.NewProgressRepo(db)
	res, err := repo.CompleteLesson(ctx, u.ID, c.ID, lesson.ID)
	require.NoError(t, err)
	assert.True(t, res.Added)
	assert.Equal(t, 25.0, res.Progress.Progress)

	res, err = repo.CompleteLesson(ctx, u.ID, c.ID, lesson.ID)
	require.NoError(t, err)
	assert.False(t, res.Added)
	assert.Equal(t, 25.0, res.Progress.Progress)

	snap, err := repo.Get(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{lesson.ID}, snap.CompletedLessons)
	require.NotNil(t, snap.LastAccessedLessonID)
	assert.Equal(t, lesson.ID, *snap.LastAccessedLessonID)
}

func TestProgressGetCreatesZeroRecord(t *testing.T) {
	db := memdb.Open(t)
	u := seedUser(t, db, "z@x.io")
	c := seedCourse(t, db, "Empty", 0)

	snap, err := storage.NewProgressRepo(db).Get(context.Background(), u.ID, c.ID)
	require.NoError(t, err)
	assert.Zero(t, snap.Progress)
	assert.Empty(t, snap.CompletedLessons)
	assert.Empty(t, snap.CompletedPractices)

	var n int64
	require.NoError(t, db.Model(&models.UserProgress{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestCompletingCourseIssuesCertificate(t *testing.T) {
	db := memdb.Open(t)
	ctx := context.Background()
	u := seedUser(t, db, "c@x.io")
	c := seedCourse(t, db, "Short", 2)

	enrollments := storage.NewEnrollmentRepo(db)
	_, err := enrollments.Create(ctx, u.ID, c.ID)
	require.NoError(t, err)

	_, err = enrollments.Create(ctx, u.ID, c.ID)
	assert.True(t, apperr.Is(err, apperr.Conflict))

	progress := storage.NewProgressRepo(db)
	res, err := progress.CompleteLesson(ctx, u.ID, c.ID, c.Modules[0].Lessons[0].ID)
	require.NoError(t, err)
	assert.True(t, res.Enrolled)
	assert.False(t, res.CourseCompleted)

	res, err = progress.CompleteLesson(ctx, u.ID, c.ID, c.Modules[0].Lessons[1].ID)
	require.NoError(t, err)
	assert.True(t, res.CourseCompleted)
	assert.Equal(t, 100.0, res.Progress.Progress)

	uc, err := enrollments.Get(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, uc.Status)
	require.NotNil(t, uc.CertificateID)
	require.NotNil(t, uc.CompletedAt)

	stats, err := enrollments.Stats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.EnrollmentStats{Completed: 1, Active: 0, Certificates: 1}, stats)
}

func TestListByUserOrdering(t *testing.T) {
	db := memdb.Open(t)
	ctx := context.Background()
	u := seedUser(t, db, "l@x.io")
	a := seedCourse(t, db, "A", 1)
	b := seedCourse(t, db, "B", 1)
	cc := seedCourse(t, db, "C", 1)

	repo := storage.NewEnrollmentRepo(db)
	for _, c := range []models.Course{a, b, cc} {
		_, err := repo.Create(ctx, u.ID, c.ID)
		require.NoError(t, err)
	}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Model(&models.UserCourse{}).Where("course_id = ?", a.ID).
		Updates(map[string]any{"last_accessed_at": base, "status": models.StatusCompleted}).Error)
	require.NoError(t, db.Model(&models.UserCourse{}).Where("course_id = ?", b.ID).
		Update("last_accessed_at", base.Add(time.Hour)).Error)
	require.NoError(t, db.Model(&models.UserCourse{}).Where("course_id = ?", cc.ID).
		Update("last_accessed_at", base.Add(2*time.Hour)).Error)

	rows, total, err := repo.ListByUser(ctx, u.ID, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 3)
	// in_progress > completed по убыванию, внутри - свежие первыми
	assert.Equal(t, []string{"C", "B", "A"}, []string{rows[0].Title, rows[1].Title, rows[2].Title})

	rows, total, err = repo.ListByUser(ctx, u.ID, models.StatusCompleted, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "A", rows[0].Title)

	rows, _, err = repo.ListByUser(ctx, u.ID, "", 1, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "B", rows[0].Title)
}

func TestReplaceBlocksGuardsAnsweredPractice(t *testing.T) {
	db := memdb.Open(t)
	ctx := context.Background()
	u := seedUser(t, db, "b@x.io")
	c := seedCourse(t, db, "Blocks", 1)
	lessonID := c.Modules[0].Lessons[0].ID
	repo := storage.NewCourseRepo(db)

	practice := datatypes.JSON(`{"description":"say hi","validation_regex":"hi"}`)
	require.NoError(t, repo.ReplaceBlocks(ctx, lessonID, []storage.BlockInput{
		{Type: models.BlockParagraph, Data: datatypes.JSON(`{"text":"hello"}`)},
		{Type: models.BlockPractice, Data: practice},
	}, false))

	lesson, err := repo.GetLesson(ctx, lessonID)
	require.NoError(t, err)
	require.Len(t, lesson.ContentBlocks, 2)
	block := lesson.ContentBlocks[1]

	require.NoError(t, storage.NewProgressRepo(db).RecordAttempt(ctx, &models.UserPracticeAttempt{
		UserID: u.ID, BlockID: block.ID, Answer: "hi", IsCorrect: true,
	}))

	// удаление отвеченной практики
	err = repo.ReplaceBlocks(ctx, lessonID, []storage.BlockInput{
		{ID: lesson.ContentBlocks[0].ID, Type: models.BlockParagraph, Data: lesson.ContentBlocks[0].Data},
	}, false)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "BLOCK_HAS_ANSWERS", e.PublicCode())

	// тот же JSON в другом форматировании не считается изменением
	require.NoError(t, repo.ReplaceBlocks(ctx, lessonID, []storage.BlockInput{
		{ID: lesson.ContentBlocks[0].ID, Type: models.BlockParagraph, Data: lesson.ContentBlocks[0].Data},
		{ID: block.ID, Type: models.BlockPractice, Data: datatypes.JSON(`{ "validation_regex": "hi", "description": "say hi" }`)},
	}, false))

	require.NoError(t, repo.ReplaceBlocks(ctx, lessonID, nil, true))
	n, err := repo.CountAttempts(ctx, block.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteCourseRemovesDependents(t *testing.T) {
	db := memdb.Open(t)
	ctx := context.Background()
	u := seedUser(t, db, "d@x.io")
	c := seedCourse(t, db, "Doomed", 2)

	_, err := storage.NewEnrollmentRepo(db).Create(ctx, u.ID, c.ID)
	require.NoError(t, err)
	_, err = storage.NewProgressRepo(db).CompleteLesson(ctx, u.ID, c.ID, c.Modules[0].Lessons[0].ID)
	require.NoError(t, err)

	repo := storage.NewCourseRepo(db)
	require.NoError(t, repo.Delete(ctx, c.ID))
	assert.True(t, apperr.Is(repo.Delete(ctx, c.ID), apperr.NotFound))

	for _, m := range []any{&models.Lesson{}, &models.Module{}, &models.UserCourse{}, &models.CompletedLesson{}, &models.UserProgress{}} {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		assert.Zero(t, n)
	}
}

func TestLessonCountFollowsLessons(t *testing.T) {
	db := memdb.Open(t)
	ctx := context.Background()
	c := seedCourse(t, db, "Counts", 1)
	repo := storage.NewCourseRepo(db)
	moduleID := c.Modules[0].ID

	l := models.Lesson{ModuleID: moduleID, Title: "extra", Type: models.LessonVideo}
	require.NoError(t, repo.CreateLesson(ctx, &l))
	m, err := repo.GetModule(ctx, moduleID)
	require.NoError(t, err)
	assert.Equal(t, 2, m.LessonsCount)

	require.NoError(t, repo.DeleteLesson(ctx, l.ID))
	m, err = repo.GetModule(ctx, moduleID)
	require.NoError(t, err)
	assert.Equal(t, 1, m.LessonsCount)

	_, err = repo.LessonInCourse(ctx, c.ID+100, c.Modules[0].Lessons[0].ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestEventRegisterStopsWhenFull(t *testing.T) {
	db := memdb.Open(t)
	ctx := context.Background()
	repo := storage.NewEventRepo(db)

	limit := 1
	e := models.Event{
		Title: "Meetup", Type: models.EventMeetup, MaxParticipants: &limit,
		StartDate: time.Now(), EndDate: time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, &e))

	got, err := repo.Register(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentParticipants)

	_, err = repo.Register(ctx, e.ID)
	assert.True(t, apperr.Is(err, apperr.Conflict))

	_, err = repo.Register(ctx, e.ID+1)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestEventUpdateKeepsRegistrations(t *testing.T) {
	db := memdb.Open(t)
	ctx := context.Background()
	repo := storage.NewEventRepo(db)

	limit := 1
	e := models.Event{
		Title: "Workshop", Type: models.EventWorkshop, MaxParticipants: &limit,
		StartDate: time.Now(), EndDate: time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, &e))

	// админ прочитал событие, пока кто-то занимал место
	stale, err := repo.Get(ctx, e.ID)
	require.NoError(t, err)
	_, err = repo.Register(ctx, e.ID)
	require.NoError(t, err)

	got, err := repo.Update(ctx, stale.ID, map[string]any{"title": "Workshop v2"})
	require.NoError(t, err)
	assert.Equal(t, "Workshop v2", got.Title)
	assert.Equal(t, 1, got.CurrentParticipants)

	_, err = repo.Register(ctx, e.ID)
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestEventUpdateRejectsLimitBelowTaken(t *testing.T) {
	db := memdb.Open(t)
	ctx := context.Background()
	repo := storage.NewEventRepo(db)

	e := models.Event{Title: "Talk", Type: models.EventWebinar, StartDate: time.Now(), EndDate: time.Now()}
	require.NoError(t, repo.Create(ctx, &e))
	for i := 0; i < 2; i++ {
		_, err := repo.Register(ctx, e.ID)
		require.NoError(t, err)
	}

	_, err := repo.Update(ctx, e.ID, map[string]any{"max_participants": 1})
	assert.True(t, apperr.Is(err, apperr.Validation))

	got, err := repo.Update(ctx, e.ID, map[string]any{"max_participants": 2})
	require.NoError(t, err)
	require.NotNil(t, got.MaxParticipants)
	assert.Equal(t, 2, *got.MaxParticipants)
	assert.Equal(t, 2, got.CurrentParticipants)
}

func TestNoteListScopedToUser(t *testing.T) {
	db := memdb.Open(t)
	repo := storage.NewNoteRepo(db)
	ctx := context.Background()
	a := seedUser(t, db, "a@x.io")
	b := seedUser(t, db, "b@x.io")
	day := time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &models.CalendarNote{UserID: a.ID, Title: "mine", Date: day, IsImportant: true}))
	require.NoError(t, repo.Create(ctx, &models.CalendarNote{UserID: a.ID, Title: "plain", Date: day.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &models.CalendarNote{UserID: b.ID, Title: "other", Date: day}))
	require.NoError(t, repo.Create(ctx, &models.CalendarNote{UserID: a.ID, Title: "late", Date: day.AddDate(0, 1, 0)}))

	notes, err := repo.List(ctx, storage.NoteFilter{UserID: a.ID, From: day.Add(-time.Hour), To: day.Add(2 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "mine", notes[0].Title)
	assert.Equal(t, "plain", notes[1].Title)

	important := true
	notes, err = repo.List(ctx, storage.NoteFilter{UserID: a.ID, From: day.Add(-time.Hour), To: day.Add(2 * time.Hour), IsImportant: &important})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "mine", notes[0].Title)
}

func TestDueForReminder(t *testing.T) {
	db := memdb.Open(t)
	ctx := context.Background()
	tg := "123456"
	owner := models.User{Email: "n@x.io", Role: models.RoleStudent, IsActive: true, TelegramID: &tg}
	require.NoError(t, storage.NewUserRepo(db).Create(ctx, &owner))
	silent := seedUser(t, db, "s@x.io")

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := storage.NewNoteRepo(db)
	soon := models.CalendarNote{UserID: owner.ID, Title: "Soon", Date: now.Add(10 * time.Minute)}
	later := models.CalendarNote{UserID: owner.ID, Title: "Later", Date: now.Add(3 * time.Hour)}
	noTG := models.CalendarNote{UserID: silent.ID, Title: "Nobody", Date: now.Add(5 * time.Minute)}
	for _, n := range []*models.CalendarNote{&soon, &later, &noTG} {
		require.NoError(t, repo.Create(ctx, n))
	}

	due, err := repo.DueForReminder(ctx, now, now.Add(30*time.Minute))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, soon.ID, due[0].ID)
	assert.Equal(t, "123456", due[0].TelegramID)

	require.NoError(t, repo.MarkReminded(ctx, soon.ID, now))
	due, err = repo.DueForReminder(ctx, now, now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, due)
}
