package model

import "time"

// StudentForm is a submitted student registration form.
type StudentForm struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	FirstName   string    `gorm:"type:text;not null" json:"nume"`
	LastName    string    `gorm:"type:text;not null" json:"prenume"`
	Faculty     string    `gorm:"type:text;not null" json:"facultate"`
	Motivation  string    `gorm:"type:text;not null" json:"motivatie"`
	SubmittedAt time.Time `gorm:"not null;index" json:"dataSubmisiei"`
}

// TableName pins the table name independently of the struct name.
func (StudentForm) TableName() string {
	return "student_forms"
}
