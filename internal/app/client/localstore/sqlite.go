package localstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	// Драйвер golang-migrate для SQLite, регистрирует схему sqlite3://
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/exp/slog"

	"workoutsync/internal/domain/workout"
	"workoutsync/internal/infrastructure/migration"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type SQLite struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSQLite открывает файл базы, накатывает миграции схемы и один раз
// приводит старые записи упражнений к текущему формату
func NewSQLite(ctx context.Context, path string, log *slog.Logger) (*SQLite, error) {
	mg := migration.New("iofs://migrations", "sqlite3://"+path, migration.IOFSEngine(migrationsFS, "migrations"))
	if err := mg.Up(); err != nil {
		return nil, fmt.Errorf("ошибка миграции локальной базы: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы данных: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db, log: log.With("component", "localstore")}
	if err := s.normalizeMuscleGroups(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка нормализации групп мышц: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// normalizeMuscleGroups переписывает все записи, где группы мышц хранятся
// не чистым JSON-списком: одиночной строкой, строкой через запятую или
// многократно закодированным JSON
func (s *SQLite) normalizeMuscleGroups(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, muscle_groups FROM exercises`)
	if err != nil {
		return err
	}

	fixes := map[int64]string{}
	for rows.Next() {
		var (
			id  int64
			raw string
		)
		if err := rows.Scan(&id, &raw); err != nil {
			rows.Close()
			return err
		}
		clean, err := json.Marshal(workout.MuscleGroups(workout.NormalizeMuscleGroups(raw)))
		if err != nil {
			rows.Close()
			return err
		}
		if string(clean) != raw {
			fixes[id] = string(clean)
		}
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for id, clean := range fixes {
		if _, err := s.db.ExecContext(ctx, `UPDATE exercises SET muscle_groups = ? WHERE id = ?`, clean, id); err != nil {
			return err
		}
	}
	if len(fixes) > 0 {
		s.log.Info("Группы мышц приведены к списку", "records", len(fixes))
	}
	return nil
}

// ==================== Exercises ====================

const exerciseColumns = `id, name, muscle_groups, equipment, deleted, synced`

func scanExercise(sc interface{ Scan(...any) error }) (workout.Exercise, error) {
	var (
		e   workout.Exercise
		raw string
	)
	if err := sc.Scan(&e.ID, &e.Name, &raw, &e.Equipment, &e.Deleted, &e.Synced); err != nil {
		return workout.Exercise{}, err
	}
	e.MuscleGroups = workout.NormalizeMuscleGroups(raw)
	return e, nil
}

func (s *SQLite) AddExercise(ctx context.Context, e workout.Exercise) (int64, error) {
	groups, err := json.Marshal(e.MuscleGroups)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO exercises (name, muscle_groups, equipment, deleted, synced) VALUES (?, ?, ?, ?, ?)`,
		e.Name, string(groups), e.Equipment, e.Deleted, e.Synced)
	if err != nil {
		return 0, fmt.Errorf("ошибка добавления упражнения: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLite) GetExercise(ctx context.Context, id int64) (workout.Exercise, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id = ?`, id)
	e, err := scanExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return workout.Exercise{}, fmt.Errorf("упражнение %d: %w", id, ErrNotFound)
	}
	return e, err
}

func (s *SQLite) UpdateExercise(ctx context.Context, e workout.Exercise) error {
	groups, err := json.Marshal(e.MuscleGroups)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE exercises SET name = ?, muscle_groups = ?, equipment = ?, deleted = ?, synced = ? WHERE id = ?`,
		e.Name, string(groups), e.Equipment, e.Deleted, e.Synced, e.ID)
	if err != nil {
		return fmt.Errorf("ошибка обновления упражнения: %w", err)
	}
	return expectOne(res, "упражнение", e.ID)
}

func (s *SQLite) DeleteExercise(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exercises WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления упражнения: %w", err)
	}
	return expectOne(res, "упражнение", id)
}

func (s *SQLite) ListExercises(ctx context.Context) ([]workout.Exercise, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+exerciseColumns+` FROM exercises ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []workout.Exercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLite) ExercisesByIDs(ctx context.Context, ids []int64) ([]workout.Exercise, error) {
	var out []workout.Exercise
	for _, id := range ids {
		e, err := s.GetExercise(ctx, id)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// ==================== Workouts ====================

const workoutColumns = `id, name, start_time, end_time, status, synced`

func scanWorkout(sc interface{ Scan(...any) error }) (workout.Workout, error) {
	var (
		w      workout.Workout
		start  string
		end    sql.NullString
		status string
	)
	if err := sc.Scan(&w.ID, &w.Name, &start, &end, &status, &w.Synced); err != nil {
		return workout.Workout{}, err
	}
	w.StartTime = parseTime(start)
	w.EndTime = parseNullTime(end)
	w.Status = workout.Status(status)
	return w, nil
}

func (s *SQLite) AddWorkout(ctx context.Context, w workout.Workout) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO workouts (name, start_time, end_time, status, synced) VALUES (?, ?, ?, ?, ?)`,
		w.Name, formatTime(w.StartTime), formatNullTime(w.EndTime), string(w.Status), w.Synced)
	if err != nil {
		return 0, fmt.Errorf("ошибка добавления тренировки: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLite) GetWorkout(ctx context.Context, id int64) (workout.Workout, error) {
	w, err := scanWorkout(s.db.QueryRowContext(ctx, `SELECT `+workoutColumns+` FROM workouts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return workout.Workout{}, fmt.Errorf("тренировка %d: %w", id, ErrNotFound)
	}
	return w, err
}

func (s *SQLite) UpdateWorkout(ctx context.Context, w workout.Workout) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE workouts SET name = ?, start_time = ?, end_time = ?, status = ?, synced = ? WHERE id = ?`,
		w.Name, formatTime(w.StartTime), formatNullTime(w.EndTime), string(w.Status), w.Synced, w.ID)
	if err != nil {
		return fmt.Errorf("ошибка обновления тренировки: %w", err)
	}
	return expectOne(res, "тренировка", w.ID)
}

func (s *SQLite) DeleteWorkout(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM workout_sets WHERE workout_id = ?`, workout.FormatID(id)); err != nil {
		return fmt.Errorf("ошибка удаления подходов: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM workouts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления тренировки: %w", err)
	}
	if err := expectOne(res, "тренировка", id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) ListWorkouts(ctx context.Context) ([]workout.Workout, error) {
	return s.queryWorkouts(ctx, `SELECT `+workoutColumns+` FROM workouts ORDER BY start_time DESC, id DESC`)
}

func (s *SQLite) WorkoutsByStatus(ctx context.Context, status workout.Status) ([]workout.Workout, error) {
	return s.queryWorkouts(ctx, `SELECT `+workoutColumns+` FROM workouts WHERE status = ? ORDER BY id`, string(status))
}

func (s *SQLite) queryWorkouts(ctx context.Context, query string, args ...any) ([]workout.Workout, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []workout.Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ==================== Sets ====================

const setColumns = `id, workout_id, exercise_id, set_number, weight, reps, rpe, completed, timestamp`

func scanSet(sc interface{ Scan(...any) error }) (workout.WorkoutSet, error) {
	var (
		ws  workout.WorkoutSet
		rpe sql.NullFloat64
		ts  string
	)
	if err := sc.Scan(&ws.ID, &ws.WorkoutID, &ws.ExerciseID, &ws.SetNumber, &ws.Weight, &ws.Reps, &rpe, &ws.Completed, &ts); err != nil {
		return workout.WorkoutSet{}, err
	}
	if rpe.Valid {
		v := rpe.Float64
		ws.RPE = &v
	}
	ws.Timestamp = parseTime(ts)
	return ws, nil
}

func (s *SQLite) AddSet(ctx context.Context, ws workout.WorkoutSet) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO workout_sets (workout_id, exercise_id, set_number, weight, reps, rpe, completed, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ws.WorkoutID, ws.ExerciseID, ws.SetNumber, ws.Weight, ws.Reps, nullFloat(ws.RPE), ws.Completed, formatTime(ws.Timestamp))
	if err != nil {
		return 0, fmt.Errorf("ошибка добавления подхода: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLite) UpdateSet(ctx context.Context, ws workout.WorkoutSet) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE workout_sets SET workout_id = ?, exercise_id = ?, set_number = ?, weight = ?, reps = ?, rpe = ?, completed = ?, timestamp = ?
		 WHERE id = ?`,
		ws.WorkoutID, ws.ExerciseID, ws.SetNumber, ws.Weight, ws.Reps, nullFloat(ws.RPE), ws.Completed, formatTime(ws.Timestamp), ws.ID)
	if err != nil {
		return fmt.Errorf("ошибка обновления подхода: %w", err)
	}
	return expectOne(res, "подход", ws.ID)
}

func (s *SQLite) DeleteSet(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM workout_sets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления подхода: %w", err)
	}
	return expectOne(res, "подход", id)
}

func (s *SQLite) SetsByWorkout(ctx context.Context, workoutID string) ([]workout.WorkoutSet, error) {
	return s.querySets(ctx, `SELECT `+setColumns+` FROM workout_sets WHERE workout_id = ? ORDER BY set_number, id`, workoutID)
}

func (s *SQLite) SetsByExercise(ctx context.Context, exerciseID string) ([]workout.WorkoutSet, error) {
	return s.querySets(ctx, `SELECT `+setColumns+` FROM workout_sets WHERE exercise_id = ? ORDER BY id`, exerciseID)
}

func (s *SQLite) querySets(ctx context.Context, query string, args ...any) ([]workout.WorkoutSet, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []workout.WorkoutSet
	for rows.Next() {
		ws, err := scanSet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

// ==================== helpers ====================

func expectOne(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatNullTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return formatTime(*t)
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	if t.IsZero() {
		return nil
	}
	return &t
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
