package models

import (
	"time"

	"gorm.io/datatypes"
)

// Exercise repräsentiert eine Coding-Aufgabe mit zweisprachigen Texten.
type Exercise struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title   string `json:"title" gorm:"not null"`
	TitleBn string `json:"title_bn,omitempty"`

	Description        string `json:"description,omitempty" gorm:"type:text"`
	DescriptionBn      string `json:"description_bn,omitempty" gorm:"type:text"`
	Instructions       string `json:"instructions,omitempty" gorm:"type:text"`
	InstructionsBn     string `json:"instructions_bn,omitempty" gorm:"type:text"`
	ProblemStatement   string `json:"problem_statement,omitempty" gorm:"type:text"`
	ProblemStatementBn string `json:"problem_statement_bn,omitempty" gorm:"type:text"`

	InputDescription    string `json:"input_description,omitempty" gorm:"type:text"`
	InputDescriptionBn  string `json:"input_description_bn,omitempty" gorm:"type:text"`
	OutputDescription   string `json:"output_description,omitempty" gorm:"type:text"`
	OutputDescriptionBn string `json:"output_description_bn,omitempty" gorm:"type:text"`
	SampleInput         string `json:"sample_input,omitempty" gorm:"type:text"`
	SampleInputBn       string `json:"sample_input_bn,omitempty" gorm:"type:text"`
	SampleOutput        string `json:"sample_output,omitempty" gorm:"type:text"`
	SampleOutputBn      string `json:"sample_output_bn,omitempty" gorm:"type:text"`

	// easy, medium, hard
	Difficulty   string `json:"difficulty" gorm:"index;not null"`
	DifficultyBn string `json:"difficulty_bn,omitempty"`
	// Geschätzte Bearbeitungszeit in Minuten
	Duration   int    `json:"duration,omitempty"`
	DurationBn string `json:"duration_bn,omitempty"`

	Category   string         `json:"category,omitempty" gorm:"index"`
	CategoryBn string         `json:"category_bn,omitempty"`
	Tags       datatypes.JSON `json:"tags,omitempty"`
	TagsBn     datatypes.JSON `json:"tags_bn,omitempty"`

	StarterCode         string `json:"starter_code,omitempty" gorm:"type:text"`
	SolutionCode        string `json:"solution_code,omitempty" gorm:"type:text"`
	ProgrammingLanguage string `json:"programming_language,omitempty"`
	LanguageName        string `json:"language_name,omitempty"`
	LanguageNameBn      string `json:"language_name_bn,omitempty"`

	ImageURL string `json:"image_url,omitempty"`

	// Content Management
	Slug        string     `json:"slug" gorm:"uniqueIndex;not null"`
	Status      string     `json:"status" gorm:"index;default:'draft'"`
	PublishedAt *time.Time `json:"published_at,omitempty"`

	// Analytics
	Views       uint `json:"views" gorm:"default:0"`
	Completions uint `json:"completions" gorm:"default:0"`
}

// TableName gibt explizit den Tabellennamen an.
func (Exercise) TableName() string {
	return "exercises"
}

func (e *Exercise) GetID() uint                 { return e.ID }
func (e *Exercise) GetSlug() string             { return e.Slug }
func (e *Exercise) SetSlug(slug string)         { e.Slug = slug }
func (e *Exercise) SlugSource() string          { return e.Title }
func (e *Exercise) GetStatus() string           { return e.Status }
func (e *Exercise) SetStatus(status string)     { e.Status = status }
func (e *Exercise) GetPublishedAt() *time.Time  { return e.PublishedAt }
func (e *Exercise) SetPublishedAt(t *time.Time) { e.PublishedAt = t }

// Validate prüft die Pflichtfelder einer Exercise. Anders als beim Blog sind
// die bengalischen Felder optional; nur Titel und Schwierigkeit sind Pflicht.
func (e *Exercise) Validate() map[string]string {
	errs := map[string]string{}
	requireField(errs, "title", e.Title)
	requireField(errs, "difficulty", e.Difficulty)
	return errs
}
