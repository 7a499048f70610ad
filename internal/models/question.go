package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Question is one multiple-choice evaluation item.
type Question struct {
	ID            string                      `json:"id" gorm:"primaryKey;size:36"`
	Level         Level                       `json:"level" gorm:"not null;size:2;index" validate:"required,cefr_level"`
	CompetencyID  *string                     `json:"competency_id,omitempty" gorm:"size:36;index"`
	Competency    string                      `json:"competency" gorm:"size:200"`
	Text          string                      `json:"text" gorm:"type:text;not null" validate:"required,min=1,max=2000"`
	Options       datatypes.JSONSlice[string] `json:"options" gorm:"type:jsonb;not null" validate:"required,min=2,max=6,dive,required"`
	CorrectAnswer int                         `json:"correct_answer" validate:"min=0"`
	Explanation   *string                     `json:"explanation,omitempty" gorm:"type:text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Question) TableName() string {
	return "questions"
}

// IsCorrect reports whether option is the correct answer. A nil answer is
// never correct.
func (q *Question) IsCorrect(option *int) bool {
	return option != nil && *option == q.CorrectAnswer
}

// Competency groups questions under a named digital skill.
type Competency struct {
	ID          string `json:"id" gorm:"primaryKey;size:36"`
	Name        string `json:"name" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description string `json:"description" gorm:"type:text" validate:"max=2000"`
	Code        string `json:"code" gorm:"uniqueIndex;not null;size:20" validate:"required,min=1,max=20"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Competency) TableName() string {
	return "competencies"
}
