package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habit-tracker-bot/internal/domain"
	"habit-tracker-bot/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ domain.UserRepo = (*Postgres)(nil)
var _ domain.ActivityRepo = (*Postgres)(nil)
var _ domain.HabitRepo = (*Postgres)(nil)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

const userColumns = `id, tg_user_id, display_name, timezone, daily_reminder, reminder_time,
total_activities, total_duration_minutes, streak_days, last_activity_at, created_at, updated_at`

func scanUser(row pgx.Row) (domain.User, bool, error) {
	var (
		u        domain.User
		lastAt   sql.NullTime
		inserted bool
	)
	err := row.Scan(&u.ID, &u.TGUserID, &u.DisplayName, &u.Settings.Timezone, &u.Settings.DailyReminder,
		&u.Settings.ReminderTime, &u.Stats.TotalActivities, &u.Stats.TotalDurationMinutes,
		&u.Stats.StreakDays, &lastAt, &u.CreatedAt, &u.UpdatedAt, &inserted)
	if err != nil {
		return domain.User{}, false, err
	}
	if lastAt.Valid {
		ts := lastAt.Time
		u.Stats.LastActivityAt = &ts
	}
	return u, inserted, nil
}

// GetOrCreate реализует domain.UserRepo. Повторный вызов возвращает
// существующий профиль без изменений.
func (p *Postgres) GetOrCreate(ctx context.Context, profile domain.TelegramProfile) (domain.User, bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
INSERT INTO users (tg_user_id, display_name)
VALUES ($1, $2)
ON CONFLICT (tg_user_id) DO UPDATE SET tg_user_id = EXCLUDED.tg_user_id
RETURNING `+userColumns+`, (xmax = 0) AS inserted
`, profile.TGUserID, profile.DisplayName)
	user, inserted, err := scanUser(row)
	metrics.ObserveNetworkRequest("postgres", "users_get_or_create", "users", start, err)
	if err != nil {
		return domain.User{}, false, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return user, inserted, nil
}

// GetByTGID возвращает пользователя по Telegram ID.
func (p *Postgres) GetByTGID(ctx context.Context, tgUserID int64) (domain.User, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
SELECT `+userColumns+`, false AS inserted FROM users WHERE tg_user_id=$1
`, tgUserID)
	user, _, err := scanUser(row)
	metrics.ObserveNetworkRequest("postgres", "users_get_by_tgid", "users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return user, nil
}

// GetStats возвращает статистику пользователя.
func (p *Postgres) GetStats(ctx context.Context, tgUserID int64) (domain.UserStats, error) {
	user, err := p.GetByTGID(ctx, tgUserID)
	if err != nil {
		return domain.UserStats{}, err
	}
	return user.Stats, nil
}

// LogActivity добавляет запись и атомарно обновляет статистику владельца.
// Блокировка строки пользователя сериализует конкурентные вызовы по
// одному пользователю; запись, инкременты и пересчёт серии фиксируются
// одной транзакцией.
func (p *Postgres) LogActivity(ctx context.Context, tgUserID int64, activity domain.Activity) (domain.Activity, error) {
	if err := activity.Validate(); err != nil {
		return domain.Activity{}, err
	}

	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "activities", start, err)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	var (
		userID     int64
		streakDays int
		lastAt     sql.NullTime
	)
	start = time.Now()
	err = tx.QueryRow(ctx, `
SELECT id, streak_days, last_activity_at FROM users WHERE tg_user_id=$1 FOR UPDATE
`, tgUserID).Scan(&userID, &streakDays, &lastAt)
	metrics.ObserveNetworkRequest("postgres", "users_lock", "users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Activity{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.Activity{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	now := p.now()
	activity.ID = uuid.New()
	activity.UserID = userID
	activity.LoggedAt = now

	start = time.Now()
	_, err = tx.Exec(ctx, `
INSERT INTO activities (id, user_id, time_of_day, description, duration_minutes, sentiment, logged_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, activity.ID, userID, activity.TimeOfDay, activity.Description, activity.DurationMinutes, string(activity.Sentiment), now)
	metrics.ObserveNetworkRequest("postgres", "activities_insert", "activities", start, err)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	// Серия считается от предыдущего last_activity_at, прочитанного до
	// перезаписи.
	var prevLast *time.Time
	if lastAt.Valid {
		ts := lastAt.Time
		prevLast = &ts
	}
	newStreak := domain.NextStreak(streakDays, prevLast, now)

	start = time.Now()
	_, err = tx.Exec(ctx, `
UPDATE users SET
	total_activities = total_activities + 1,
	total_duration_minutes = total_duration_minutes + $2,
	streak_days = $3,
	last_activity_at = $4,
	updated_at = now()
WHERE id = $1
`, userID, activity.DurationMinutes, newStreak, now)
	metrics.ObserveNetworkRequest("postgres", "users_update_stats", "users", start, err)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "activities", start, err)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	metrics.ActivitiesLoggedTotal.Inc()
	return activity, nil
}

// ListRecent возвращает последние активности пользователя, отсортированные
// по времени записи по убыванию, с необязательным окном [start, end).
func (p *Postgres) ListRecent(ctx context.Context, tgUserID int64, limit int, window domain.ActivityWindow) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = 10
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	query := `
SELECT a.id, a.user_id, a.time_of_day, a.description, a.duration_minutes, a.sentiment, a.logged_at
FROM activities a
JOIN users u ON u.id = a.user_id
WHERE u.tg_user_id = $1`
	args := []any{tgUserID}
	if window.Start != nil {
		args = append(args, *window.Start)
		query += fmt.Sprintf(" AND a.logged_at >= $%d", len(args))
	}
	if window.End != nil {
		args = append(args, *window.End)
		query += fmt.Sprintf(" AND a.logged_at < $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY a.logged_at DESC LIMIT $%d", len(args))

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", "activities_list_recent", "activities", start, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		var (
			a         domain.Activity
			sentiment string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.TimeOfDay, &a.Description, &a.DurationMinutes, &sentiment, &a.LoggedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
		a.Sentiment = domain.Sentiment(sentiment)
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return activities, nil
}

// UpsertGoal создаёт или обновляет цель по привычке. Целевые поля
// заменяются, счётчики существующей цели сохраняются.
func (p *Postgres) UpsertGoal(ctx context.Context, tgUserID int64, goal domain.HabitGoal) (domain.HabitGoal, error) {
	if goal.TargetFrequency == "" {
		goal.TargetFrequency = domain.DefaultTargetFrequency
	}
	if goal.TargetDurationMinutes < 0 {
		return domain.HabitGoal{}, &domain.ValidationError{Field: "target_duration", Reason: "отрицательная целевая длительность"}
	}

	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
INSERT INTO habit_goals (user_id, name, target_frequency, target_duration_minutes)
SELECT u.id, $2, $3, $4 FROM users u WHERE u.tg_user_id = $1
ON CONFLICT (user_id, name) DO UPDATE SET
	target_frequency = EXCLUDED.target_frequency,
	target_duration_minutes = EXCLUDED.target_duration_minutes,
	updated_at = now()
RETURNING id, user_id, name, target_frequency, target_duration_minutes, streak_days, total_completions, created_at, updated_at
`, tgUserID, goal.Name, goal.TargetFrequency, goal.TargetDurationMinutes)

	var saved domain.HabitGoal
	err := row.Scan(&saved.ID, &saved.UserID, &saved.Name, &saved.TargetFrequency, &saved.TargetDurationMinutes,
		&saved.StreakDays, &saved.TotalCompletions, &saved.CreatedAt, &saved.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "habit_goals_upsert", "habit_goals", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.HabitGoal{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.HabitGoal{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return saved, nil
}
