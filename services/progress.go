package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pathshala-api/models"
)

// ActivityCounters sind die pro Tag gemeldeten Aktivitätszähler. Alle Werte
// müssen nicht-negativ sein; ein erneutes Tracken für denselben Tag ersetzt
// die gespeicherten Werte vollständig.
type ActivityCounters struct {
	MinutesActive       int `json:"minutes_active"`
	LessonsCompleted    int `json:"lessons_completed"`
	ExercisesCompleted  int `json:"exercises_completed"`
	QuizzesCompleted    int `json:"quizzes_completed"`
	BlogsRead           int `json:"blogs_read"`
	CommentsPosted      int `json:"comments_posted"`
	CodeSnippetsCreated int `json:"code_snippets_created"`
}

// ActivitySummary fasst einen Aktivitätszeitraum zusammen.
type ActivitySummary struct {
	TotalMinutes        int     `json:"total_minutes"`
	TotalLessons        int     `json:"total_lessons"`
	TotalExercises      int     `json:"total_exercises"`
	TotalQuizzes        int     `json:"total_quizzes"`
	ActiveDays          int     `json:"active_days"`
	AverageDailyMinutes float64 `json:"average_daily_minutes"`
}

// PublicProfile ist die eingeschränkte Projektion für fremde Betrachter:
// keine E-Mail, keine privaten Einstellungen.
type PublicProfile struct {
	User struct {
		ID        uint      `json:"id"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"user"`
	Profile     *PublicProfileInfo `json:"profile"`
	Performance *PublicPerformance `json:"performance"`
}

// PublicProfileInfo sind die öffentlich sichtbaren Profilfelder.
type PublicProfileInfo struct {
	Username             string          `json:"username,omitempty"`
	Bio                  string          `json:"bio,omitempty"`
	AvatarURL            string          `json:"avatar_url,omitempty"`
	Location             string          `json:"location,omitempty"`
	SkillLevel           string          `json:"skill_level,omitempty"`
	ProgrammingLanguages json.RawMessage `json:"programming_languages,omitempty"`
	GitHubURL            string          `json:"github_url,omitempty"`
	LinkedInURL          string          `json:"linkedin_url,omitempty"`
	TwitterURL           string          `json:"twitter_url,omitempty"`
	PortfolioURL         string          `json:"portfolio_url,omitempty"`
}

// PublicPerformance sind die öffentlich sichtbaren Performance-Kennzahlen.
type PublicPerformance struct {
	TotalLessonsCompleted   int             `json:"total_lessons_completed"`
	TotalExercisesCompleted int             `json:"total_exercises_completed"`
	CurrentStreak           int             `json:"current_streak"`
	LongestStreak           int             `json:"longest_streak"`
	ExperienceLevel         int             `json:"experience_level"`
	Badges                  json.RawMessage `json:"badges,omitempty"`
}

// ProgressService pflegt das Tagesjournal (user_activities) und hält das
// materialisierte Aggregat (user_performance) synchron. Das Aggregat wird nach
// jedem Upsert vollständig aus der Historie neu berechnet, damit nachgetragene
// oder korrigierte Tage sich selbst heilen.
type ProgressService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewProgressService erstellt eine neue Instanz des ProgressService.
func NewProgressService(db *gorm.DB, logger *zap.Logger) *ProgressService {
	return &ProgressService{DB: db, Logger: logger}
}

// TrackActivity upsertet den Aktivitätsdatensatz für (userID, date) mit
// vollständiger Ersetzung der Zähler und berechnet danach das Profil neu.
func (p *ProgressService) TrackActivity(userID uint, date time.Time, counters ActivityCounters) (*models.UserActivity, error) {
	if errs := validateCounters(counters); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	activity := models.UserActivity{
		UserID:              userID,
		ActivityDate:        models.DateOnly(date),
		MinutesActive:       counters.MinutesActive,
		LessonsCompleted:    counters.LessonsCompleted,
		ExercisesCompleted:  counters.ExercisesCompleted,
		QuizzesCompleted:    counters.QuizzesCompleted,
		BlogsRead:           counters.BlogsRead,
		CommentsPosted:      counters.CommentsPosted,
		CodeSnippetsCreated: counters.CodeSnippetsCreated,
	}

	err := p.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "activity_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"minutes_active", "lessons_completed", "exercises_completed",
			"quizzes_completed", "blogs_read", "comments_posted",
			"code_snippets_created", "updated_at",
		}),
	}).Create(&activity).Error
	if err != nil {
		return nil, err
	}

	if _, err := p.Recompute(userID); err != nil {
		return nil, err
	}
	return &activity, nil
}

// Recompute baut das Performance-Profil vollständig aus allen Aktivitäten neu
// auf: Summen, Stunden, Streak-Walk, Level und last_active_date. Auf Postgres
// wird die Profilzeile für die Dauer der Transaktion gesperrt, damit parallele
// TrackActivity-Aufrufe desselben Users serialisiert werden.
func (p *ProgressService) Recompute(userID uint) (*models.UserPerformance, error) {
	var perf models.UserPerformance
	err := p.DB.Transaction(func(tx *gorm.DB) error {
		// Lookup ausschließlich über user_id; Defaults nur via Attrs, damit
		// sie nicht in die WHERE-Klausel wandern.
		query := tx.Where("user_id = ?", userID)
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := query.Attrs(models.UserPerformance{ExperienceLevel: 1}).FirstOrCreate(&perf).Error; err != nil {
			return err
		}

		var activities []models.UserActivity
		if err := tx.Where("user_id = ?", userID).
			Order("activity_date desc").
			Find(&activities).Error; err != nil {
			return err
		}

		totalMinutes := 0
		perf.TotalLessonsCompleted = 0
		perf.TotalExercisesCompleted = 0
		perf.TotalQuizzesCompleted = 0
		for _, a := range activities {
			totalMinutes += a.MinutesActive
			perf.TotalLessonsCompleted += a.LessonsCompleted
			perf.TotalExercisesCompleted += a.ExercisesCompleted
			perf.TotalQuizzesCompleted += a.QuizzesCompleted
		}
		perf.TotalHoursLearned = math.Round(float64(totalMinutes)/60*100) / 100

		// Streak-Walk: von heute aus rückwärts, jede Lücke beendet die Serie.
		currentStreak := 0
		expected := models.DateOnly(time.Now().UTC())
		for _, a := range activities {
			if models.DateOnly(a.ActivityDate).Equal(expected) {
				currentStreak++
				expected = expected.AddDate(0, 0, -1)
			} else {
				break
			}
		}
		perf.CurrentStreak = currentStreak
		// longest_streak fällt nie, auch wenn der aktuelle Streak reißt.
		if currentStreak > perf.LongestStreak {
			perf.LongestStreak = currentStreak
		}

		if len(activities) > 0 {
			last := models.DateOnly(activities[0].ActivityDate)
			perf.LastActiveDate = &last
		}

		perf.ExperienceLevel = Level(perf.TotalPoints)

		return tx.Save(&perf).Error
	})
	if err != nil {
		return nil, err
	}
	return &perf, nil
}

// RecomputeAll berechnet die Profile aller User mit Aktivitätshistorie neu.
// Läuft nächtlich per Cron, damit gerissene Streaks auch ohne neuen
// TrackActivity-Aufruf sichtbar werden.
func (p *ProgressService) RecomputeAll() (int, error) {
	var userIDs []uint
	if err := p.DB.Model(&models.UserActivity{}).
		Distinct("user_id").
		Pluck("user_id", &userIDs).Error; err != nil {
		return 0, err
	}

	recomputed := 0
	for _, id := range userIDs {
		if _, err := p.Recompute(id); err != nil {
			p.Logger.Error("Profile recompute failed", zap.Uint("user_id", id), zap.Error(err))
			continue
		}
		recomputed++
	}
	return recomputed, nil
}

// GetPerformance liefert das Profil eines Users und berechnet es dabei frisch,
// damit der Abruf nie einen veralteten Streak zeigt.
func (p *ProgressService) GetPerformance(userID uint) (*models.UserPerformance, error) {
	return p.Recompute(userID)
}

// AwardBadge fügt dem Badge-Set idempotent einen Eintrag hinzu. Bereits
// vergebene Badges bleiben unverändert, die Reihenfolge ist die Vergabe-
// reihenfolge.
func (p *ProgressService) AwardBadge(userID uint, badge string) ([]string, error) {
	if badge == "" {
		return nil, NewValidationError("badge", "field is required")
	}

	var perf models.UserPerformance
	if err := p.DB.Where("user_id = ?", userID).
		Attrs(models.UserPerformance{ExperienceLevel: 1}).
		FirstOrCreate(&perf).Error; err != nil {
		return nil, err
	}

	var badges []string
	if len(perf.Badges) > 0 {
		if err := json.Unmarshal(perf.Badges, &badges); err != nil {
			return nil, fmt.Errorf("corrupt badges column for user %d: %w", userID, err)
		}
	}
	for _, b := range badges {
		if b == badge {
			return badges, nil
		}
	}

	badges = append(badges, badge)
	raw, err := json.Marshal(badges)
	if err != nil {
		return nil, err
	}
	perf.Badges = raw
	if err := p.DB.Save(&perf).Error; err != nil {
		return nil, err
	}

	p.Logger.Info("Badge awarded", zap.Uint("user_id", userID), zap.String("badge", badge))
	return badges, nil
}

// ActivityHistory liefert die Aktivitäten der letzten `days` Tage (absteigend)
// samt Zusammenfassung.
func (p *ProgressService) ActivityHistory(userID uint, days int) ([]models.UserActivity, ActivitySummary, error) {
	if days <= 0 {
		days = 30
	}
	start := models.DateOnly(time.Now().UTC()).AddDate(0, 0, -days)

	var activities []models.UserActivity
	if err := p.DB.Where("user_id = ? AND activity_date >= ?", userID, start).
		Order("activity_date desc").
		Find(&activities).Error; err != nil {
		return nil, ActivitySummary{}, err
	}

	summary := ActivitySummary{ActiveDays: len(activities)}
	for _, a := range activities {
		summary.TotalMinutes += a.MinutesActive
		summary.TotalLessons += a.LessonsCompleted
		summary.TotalExercises += a.ExercisesCompleted
		summary.TotalQuizzes += a.QuizzesCompleted
	}
	if summary.ActiveDays > 0 {
		summary.AverageDailyMinutes = math.Round(float64(summary.TotalMinutes)/float64(summary.ActiveDays)*100) / 100
	}
	return activities, summary, nil
}

// GetPublicProfile liefert die eingeschränkte Projektion eines Profils.
// Private Profile sind nur für den Eigentümer sichtbar (requesterID == userID);
// requesterID 0 steht für anonyme Betrachter.
func (p *ProgressService) GetPublicProfile(userID, requesterID uint) (*PublicProfile, error) {
	var user models.User
	if err := p.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "user", Ref: fmt.Sprintf("%d", userID)}
		}
		return nil, err
	}

	var profile models.UserProfile
	hasProfile := true
	if err := p.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		hasProfile = false
	}

	if hasProfile && !profile.IsPublic && requesterID != userID {
		return nil, &ForbiddenError{Reason: "this profile is private"}
	}

	result := &PublicProfile{}
	result.User.ID = user.ID
	result.User.Name = user.Name
	result.User.CreatedAt = user.CreatedAt

	if hasProfile {
		result.Profile = &PublicProfileInfo{
			Username:             profile.Username,
			Bio:                  profile.Bio,
			AvatarURL:            profile.AvatarURL,
			Location:             profile.Location,
			SkillLevel:           profile.SkillLevel,
			ProgrammingLanguages: json.RawMessage(profile.ProgrammingLanguages),
			GitHubURL:            profile.GitHubURL,
			LinkedInURL:          profile.LinkedInURL,
			TwitterURL:           profile.TwitterURL,
			PortfolioURL:         profile.PortfolioURL,
		}
	}

	var perf models.UserPerformance
	if err := p.DB.Where("user_id = ?", userID).First(&perf).Error; err == nil {
		result.Performance = &PublicPerformance{
			TotalLessonsCompleted:   perf.TotalLessonsCompleted,
			TotalExercisesCompleted: perf.TotalExercisesCompleted,
			CurrentStreak:           perf.CurrentStreak,
			LongestStreak:           perf.LongestStreak,
			ExperienceLevel:         perf.ExperienceLevel,
			Badges:                  json.RawMessage(perf.Badges),
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return result, nil
}

// Level berechnet das Erfahrungslevel aus den Punkten:
// floor(sqrt(points/100)) + 1, d. h. 0 Punkte = Level 1, 400 Punkte = Level 3.
func Level(totalPoints int) int {
	if totalPoints < 0 {
		return 1
	}
	return int(math.Floor(math.Sqrt(float64(totalPoints)/100))) + 1
}

func validateCounters(c ActivityCounters) map[string]string {
	errs := map[string]string{}
	check := func(name string, v int) {
		if v < 0 {
			errs[name] = "must be a non-negative integer"
		}
	}
	check("minutes_active", c.MinutesActive)
	check("lessons_completed", c.LessonsCompleted)
	check("exercises_completed", c.ExercisesCompleted)
	check("quizzes_completed", c.QuizzesCompleted)
	check("blogs_read", c.BlogsRead)
	check("comments_posted", c.CommentsPosted)
	check("code_snippets_created", c.CodeSnippetsCreated)
	return errs
}
