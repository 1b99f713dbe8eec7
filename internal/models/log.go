package models

import "time"

// UserPracticeAttempt - журнал ответов на практические задания (только добавление)
type UserPracticeAttempt struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	BlockID   uint      `gorm:"index;not null" json:"block_id"`
	Answer    string    `gorm:"type:text" json:"answer"`
	IsCorrect bool      `json:"is_correct"`
	Feedback  *string   `gorm:"type:text" json:"feedback"`
	CreatedAt time.Time `json:"created_at"`
}
