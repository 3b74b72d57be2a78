package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pathshala-api/models"
)

func newProgressService(t *testing.T) *ProgressService {
	t.Helper()
	return NewProgressService(newTestDB(t), zap.NewNop())
}

func TestTrackActivityReplacesCounters(t *testing.T) {
	ps := newProgressService(t)
	today := time.Now().UTC()

	_, err := ps.TrackActivity(1, today, ActivityCounters{MinutesActive: 30, LessonsCompleted: 2})
	require.NoError(t, err)

	// Erneutes Tracken desselben Tages ersetzt die Werte, addiert nicht.
	_, err = ps.TrackActivity(1, today, ActivityCounters{MinutesActive: 45, LessonsCompleted: 1})
	require.NoError(t, err)

	var count int64
	require.NoError(t, ps.DB.Model(&models.UserActivity{}).Where("user_id = ?", 1).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var activity models.UserActivity
	require.NoError(t, ps.DB.Where("user_id = ?", 1).First(&activity).Error)
	assert.Equal(t, 45, activity.MinutesActive)
	assert.Equal(t, 1, activity.LessonsCompleted)

	var perf models.UserPerformance
	require.NoError(t, ps.DB.Where("user_id = ?", 1).First(&perf).Error)
	assert.Equal(t, 0.75, perf.TotalHoursLearned)
	assert.Equal(t, 1, perf.TotalLessonsCompleted)
}

func TestTrackActivityRejectsNegativeCounters(t *testing.T) {
	ps := newProgressService(t)

	_, err := ps.TrackActivity(1, time.Now().UTC(), ActivityCounters{MinutesActive: -5})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "minutes_active")
}

func TestStreakOverConsecutiveDays(t *testing.T) {
	ps := newProgressService(t)
	now := time.Now().UTC()

	for offset := 0; offset < 3; offset++ {
		_, err := ps.TrackActivity(1, now.AddDate(0, 0, -offset), ActivityCounters{MinutesActive: 10})
		require.NoError(t, err)
	}

	perf, err := ps.Recompute(1)
	require.NoError(t, err)
	assert.Equal(t, 3, perf.CurrentStreak)
	assert.Equal(t, 3, perf.LongestStreak)
}

func TestStreakBreaksOnGap(t *testing.T) {
	ps := newProgressService(t)
	now := time.Now().UTC()

	_, err := ps.TrackActivity(1, now.AddDate(0, 0, -2), ActivityCounters{MinutesActive: 10})
	require.NoError(t, err)
	_, err = ps.TrackActivity(1, now, ActivityCounters{MinutesActive: 10})
	require.NoError(t, err)

	perf, err := ps.Recompute(1)
	require.NoError(t, err)
	assert.Equal(t, 1, perf.CurrentStreak)
}

func TestLongestStreakNeverLowered(t *testing.T) {
	ps := newProgressService(t)
	now := time.Now().UTC()

	for offset := 0; offset < 3; offset++ {
		_, err := ps.TrackActivity(1, now.AddDate(0, 0, -offset), ActivityCounters{MinutesActive: 10})
		require.NoError(t, err)
	}

	// Lücke reißt den aktuellen Streak, der Bestwert bleibt.
	require.NoError(t, ps.DB.
		Where("user_id = ? AND activity_date < ?", 1, models.DateOnly(now)).
		Delete(&models.UserActivity{}).Error)

	perf, err := ps.Recompute(1)
	require.NoError(t, err)
	assert.Equal(t, 1, perf.CurrentStreak)
	assert.Equal(t, 3, perf.LongestStreak)
}

func TestRecomputeRoundsHoursToTwoDecimals(t *testing.T) {
	ps := newProgressService(t)

	_, err := ps.TrackActivity(1, time.Now().UTC(), ActivityCounters{MinutesActive: 100})
	require.NoError(t, err)

	perf, err := ps.Recompute(1)
	require.NoError(t, err)
	assert.Equal(t, 1.67, perf.TotalHoursLearned)
}

func TestLevel(t *testing.T) {
	cases := []struct {
		points int
		want   int
	}{
		{-5, 1},
		{0, 1},
		{99, 1},
		{100, 2},
		{399, 2},
		{400, 3},
		{2500, 6},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Level(tc.points), "Level(%d)", tc.points)
	}
}

func TestRecomputeAppliesLevelFromPoints(t *testing.T) {
	ps := newProgressService(t)

	_, err := ps.TrackActivity(1, time.Now().UTC(), ActivityCounters{MinutesActive: 10})
	require.NoError(t, err)

	require.NoError(t, ps.DB.Model(&models.UserPerformance{}).
		Where("user_id = ?", 1).
		UpdateColumn("total_points", 400).Error)

	perf, err := ps.Recompute(1)
	require.NoError(t, err)
	assert.Equal(t, 3, perf.ExperienceLevel)
}

func TestProgressStaysFunctionalAfterLevelUp(t *testing.T) {
	ps := newProgressService(t)
	now := time.Now().UTC()

	_, err := ps.TrackActivity(1, now, ActivityCounters{MinutesActive: 10})
	require.NoError(t, err)
	require.NoError(t, ps.DB.Model(&models.UserPerformance{}).
		Where("user_id = ?", 1).
		UpdateColumn("total_points", 400).Error)

	perf, err := ps.Recompute(1)
	require.NoError(t, err)
	require.Equal(t, 3, perf.ExperienceLevel)

	// Sobald das gespeicherte Level nicht mehr 1 ist, müssen Recompute,
	// TrackActivity und AwardBadge weiterhin dieselbe Profilzeile treffen.
	perf, err = ps.Recompute(1)
	require.NoError(t, err)
	assert.Equal(t, 3, perf.ExperienceLevel)

	_, err = ps.TrackActivity(1, now.AddDate(0, 0, -1), ActivityCounters{MinutesActive: 20})
	require.NoError(t, err)

	badges, err := ps.AwardBadge(1, "level-up")
	require.NoError(t, err)
	assert.Equal(t, []string{"level-up"}, badges)

	var count int64
	require.NoError(t, ps.DB.Model(&models.UserPerformance{}).Where("user_id = ?", 1).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAwardBadgeIsIdempotent(t *testing.T) {
	ps := newProgressService(t)

	badges, err := ps.AwardBadge(1, "first-steps")
	require.NoError(t, err)
	badges, err = ps.AwardBadge(1, "week-warrior")
	require.NoError(t, err)
	badges, err = ps.AwardBadge(1, "first-steps")
	require.NoError(t, err)

	assert.Equal(t, []string{"first-steps", "week-warrior"}, badges)
}

func TestAwardBadgeRequiresName(t *testing.T) {
	ps := newProgressService(t)

	_, err := ps.AwardBadge(1, "")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestActivityHistorySummary(t *testing.T) {
	ps := newProgressService(t)
	now := time.Now().UTC()

	_, err := ps.TrackActivity(1, now, ActivityCounters{MinutesActive: 20, LessonsCompleted: 1})
	require.NoError(t, err)
	_, err = ps.TrackActivity(1, now.AddDate(0, 0, -1), ActivityCounters{MinutesActive: 25})
	require.NoError(t, err)
	// Außerhalb des 30-Tage-Fensters, darf nicht einfließen.
	_, err = ps.TrackActivity(1, now.AddDate(0, 0, -40), ActivityCounters{MinutesActive: 999})
	require.NoError(t, err)

	activities, summary, err := ps.ActivityHistory(1, 30)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, 2, summary.ActiveDays)
	assert.Equal(t, 45, summary.TotalMinutes)
	assert.Equal(t, 22.5, summary.AverageDailyMinutes)
	// Absteigend sortiert, neuester Tag zuerst.
	assert.True(t, activities[0].ActivityDate.After(activities[1].ActivityDate))
}

func TestGetPublicProfileVisibility(t *testing.T) {
	ps := newProgressService(t)

	user := models.User{Name: "Karim", Email: "karim@example.com"}
	require.NoError(t, ps.DB.Create(&user).Error)
	profileRow := models.UserProfile{UserID: user.ID, Username: "karim"}
	require.NoError(t, ps.DB.Create(&profileRow).Error)
	require.NoError(t, ps.DB.Model(&profileRow).Update("is_public", false).Error)

	// Fremde und anonyme Betrachter werden abgewiesen.
	_, err := ps.GetPublicProfile(user.ID, 0)
	var forbiddenErr *ForbiddenError
	require.ErrorAs(t, err, &forbiddenErr)

	_, err = ps.GetPublicProfile(user.ID, user.ID+1)
	require.ErrorAs(t, err, &forbiddenErr)

	// Der Eigentümer sieht sein Profil immer.
	profile, err := ps.GetPublicProfile(user.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Karim", profile.User.Name)
	require.NotNil(t, profile.Profile)
	assert.Equal(t, "karim", profile.Profile.Username)
}

func TestGetPublicProfileUnknownUser(t *testing.T) {
	ps := newProgressService(t)

	_, err := ps.GetPublicProfile(9999, 0)
	var notFoundErr *NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestGetPublicProfileOmitsPrivateFields(t *testing.T) {
	ps := newProgressService(t)

	user := models.User{Name: "Salma", Email: "salma@example.com"}
	require.NoError(t, ps.DB.Create(&user).Error)
	require.NoError(t, ps.DB.Create(&models.UserProfile{
		UserID:   user.ID,
		Username: "salma",
		Phone:    "01700000000",
		IsPublic: true,
	}).Error)

	_, err := ps.TrackActivity(user.ID, time.Now().UTC(), ActivityCounters{MinutesActive: 15, LessonsCompleted: 1})
	require.NoError(t, err)

	profile, err := ps.GetPublicProfile(user.ID, 0)
	require.NoError(t, err)
	require.NotNil(t, profile.Performance)
	assert.Equal(t, 1, profile.Performance.TotalLessonsCompleted)
	assert.Equal(t, 1, profile.Performance.CurrentStreak)
}
