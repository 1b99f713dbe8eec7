package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/haxxxs/edu-back/internal/models"
)

const userCoursesSheet = "Записи на курсы"

var userCoursesHeader = []string{
	"ID", "Пользователь", "Email", "Курс", "Статус", "Прогресс, %",
	"Начат", "Последний доступ", "Завершён", "Сертификат",
}

// UserCoursesWorkbook собирает выгрузку записей на курсы.
// Ожидает записи с подгруженными User и Course.
func UserCoursesWorkbook(items []models.UserCourse) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", userCoursesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(userCoursesSheet, "A1", &userCoursesHeader); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	for i, uc := range items {
		row := []any{
			uc.ID,
			uc.User.Name,
			uc.User.Email,
			uc.Course.Title,
			string(uc.Status),
			strconv.FormatFloat(uc.Progress, 'f', 1, 64),
			formatTime(&uc.StartedAt),
			formatTime(&uc.LastAccessedAt),
			formatTime(uc.CompletedAt),
			yesNo(uc.CertificateID != nil),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(userCoursesSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
	}
	if err := ApplyDefaultFormatting(f, userCoursesSheet); err != nil {
		return nil, err
	}
	return f, nil
}

// WriteUserCourses пишет xlsx в w (обычно http.ResponseWriter).
func WriteUserCourses(w io.Writer, items []models.UserCourse) error {
	f, err := UserCoursesWorkbook(items)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = f.WriteTo(w)
	return err
}

func UserCoursesFilename(now time.Time) string {
	return sanitizeFileName(fmt.Sprintf("user_courses_%s.xlsx", now.Format("2006-01-02")))
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("02.01.2006 15:04")
}

func yesNo(b bool) string {
	if b {
		return "да"
	}
	return "нет"
}
