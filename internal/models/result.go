package models

import (
	"time"

	"gorm.io/datatypes"
)

// AssessmentResult is the immutable outcome of one completed session.
type AssessmentResult struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"`
	UserID    string `json:"user_id" gorm:"not null;size:255;index"`
	SessionID string `json:"session_id" gorm:"uniqueIndex;not null;size:36"`
	Step      Step   `json:"step" gorm:"not null;index"`

	Score          int     `json:"score"`
	TotalQuestions int     `json:"total_questions"`
	Percentage     float64 `json:"percentage"`

	LevelAchieved *Level `json:"level_achieved" gorm:"size:2;index"`
	Certification string `json:"certification" gorm:"size:100"`
	Certified     bool   `json:"certified"`
	CanProceed    bool   `json:"can_proceed"`

	Answers     datatypes.JSONSlice[*int] `json:"answers" gorm:"type:jsonb"`
	EndReason   EndReason                 `json:"end_reason" gorm:"size:20"`
	TimeSpent   int                       `json:"time_spent"` // seconds
	CompletedAt time.Time                 `json:"completed_at" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (AssessmentResult) TableName() string {
	return "assessment_results"
}

// Certificate is an issued credential for a level.
type Certificate struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	UserID         string    `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_certificate_user_level"`
	Level          Level     `json:"level" gorm:"not null;size:2;uniqueIndex:idx_certificate_user_level"`
	ResultID       string    `json:"result_id" gorm:"not null;size:36"`
	IssuedAt       time.Time `json:"issued_at"`
	CertificateURL *string   `json:"certificate_url,omitempty" gorm:"size:500"`
}

func (Certificate) TableName() string {
	return "certificates"
}
