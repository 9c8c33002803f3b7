package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/exp/slog"

	"workoutsync/internal/domain/table"
)

// pgForeignKeyViolation SQLSTATE нарушения внешнего ключа
const pgForeignKeyViolation = "23503"

// querier общий интерфейс пула и транзакции
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// TableRepository выполняет запросы к таблицам синхронизации. Имена таблиц
// и колонок берутся только из table.Schema, значения передаются параметрами.
type TableRepository struct {
	db  *Storage
	log *slog.Logger
}

func NewTableRepository(db *Storage, log *slog.Logger) *TableRepository {
	return &TableRepository{
		db:  db,
		log: log.With("component", "table_repository"),
	}
}

func (r *TableRepository) Select(ctx context.Context, s table.Schema, userID int, f table.Filter) ([]table.Row, error) {
	where, args := buildWhere(s, userID, f, nil)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s",
		columnList(s.ColumnNames()), ident(s.Name), where, ident(s.Key))

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to select rows", "table", s.Name, "user_id", userID, "error", err)
		return nil, fmt.Errorf("select rows: %w", err)
	}

	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("scan rows: %w", err)
	}

	out := make([]table.Row, len(maps))
	for i, m := range maps {
		out[i] = table.Row(m)
	}
	return out, nil
}

func (r *TableRepository) Insert(ctx context.Context, s table.Schema, userID int, row table.Row) (table.Row, error) {
	inserted, err := r.insert(ctx, r.db.Pool(), s, userID, row)
	if err != nil {
		return nil, mapError(err)
	}
	return inserted, nil
}

// Upsert ищет первую строку по колонкам onConflict (текстовые сравниваются
// без учета регистра), обновляет ее или вставляет новую
func (r *TableRepository) Upsert(ctx context.Context, s table.Schema, userID int, row table.Row, onConflict []string) (table.Row, error) {
	tx, err := r.db.Pool().BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var match table.Filter
	for _, name := range onConflict {
		if name == table.OwnerColumn {
			continue
		}
		col, _ := s.Column(name)
		match = append(match, table.Cond{Field: name, Value: row[name], Fold: col.Kind == table.KindText})
	}

	where, args := buildWhere(s, userID, match, nil)
	lookup := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s LIMIT 1 FOR UPDATE",
		ident(s.Key), ident(s.Name), where, ident(s.Key))

	var key any
	err = tx.QueryRow(ctx, lookup, args...).Scan(&key)

	var result table.Row
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		result, err = r.insert(ctx, tx, s, userID, row)
	case err != nil:
		return nil, fmt.Errorf("lookup conflict row: %w", err)
	default:
		result, err = r.updateReturning(ctx, tx, s, userID, key, row)
	}
	if err != nil {
		return nil, mapError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return result, nil
}

func (r *TableRepository) Update(ctx context.Context, s table.Schema, userID int, key any, row table.Row) (int64, error) {
	cols := sortedColumns(row)
	args := []any{userID}
	sets := make([]string, len(cols))
	for i, c := range cols {
		args = append(args, encodeValue(s, c, row[c]))
		sets[i] = fmt.Sprintf("%s = $%d", ident(c), len(args))
	}
	args = append(args, key)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $1 AND %s = $%d",
		ident(s.Name), strings.Join(sets, ", "), ident(table.OwnerColumn), ident(s.Key), len(args))

	tag, err := r.db.Pool().Exec(ctx, query, args...)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

func (r *TableRepository) Delete(ctx context.Context, s table.Schema, userID int, f table.Filter) (int64, error) {
	where, args := buildWhere(s, userID, f, nil)
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", ident(s.Name), where)

	tag, err := r.db.Pool().Exec(ctx, query, args...)
	if err != nil {
		err = mapError(err)
		if !errors.Is(err, table.ErrReferenced) {
			r.log.Error("failed to delete rows", "table", s.Name, "user_id", userID, "error", err)
		}
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *TableRepository) insert(ctx context.Context, q querier, s table.Schema, userID int, row table.Row) (table.Row, error) {
	cols := sortedColumns(row)
	names := make([]string, 0, len(cols)+1)
	placeholders := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)

	names = append(names, table.OwnerColumn)
	args = append(args, userID)
	placeholders = append(placeholders, "$1")
	for _, c := range cols {
		if c == table.OwnerColumn {
			continue
		}
		names = append(names, c)
		args = append(args, encodeValue(s, c, row[c]))
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		ident(s.Name), columnList(names), strings.Join(placeholders, ", "), columnList(s.ColumnNames()))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	return table.Row(m), nil
}

func (r *TableRepository) updateReturning(ctx context.Context, q querier, s table.Schema, userID int, key any, row table.Row) (table.Row, error) {
	cols := sortedColumns(row)
	args := []any{userID}
	sets := make([]string, 0, len(cols))
	for _, c := range cols {
		args = append(args, encodeValue(s, c, row[c]))
		sets = append(sets, fmt.Sprintf("%s = $%d", ident(c), len(args)))
	}
	args = append(args, key)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $1 AND %s = $%d RETURNING %s",
		ident(s.Name), strings.Join(sets, ", "), ident(table.OwnerColumn), ident(s.Key), len(args),
		columnList(s.ColumnNames()))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	return table.Row(m), nil
}

// buildWhere всегда ограничивает выборку владельцем ($1)
func buildWhere(s table.Schema, userID int, f table.Filter, args []any) (string, []any) {
	args = append(args, userID)
	clauses := []string{fmt.Sprintf("%s = $1", ident(table.OwnerColumn))}

	for _, c := range f {
		switch {
		case c.Value == nil:
			clauses = append(clauses, fmt.Sprintf("%s IS NULL", ident(c.Field)))
		case c.Fold:
			args = append(args, c.Value)
			clauses = append(clauses, fmt.Sprintf("lower(%s) = lower($%d)", ident(c.Field), len(args)))
		default:
			args = append(args, encodeValue(s, c.Field, c.Value))
			clauses = append(clauses, fmt.Sprintf("%s = $%d", ident(c.Field), len(args)))
		}
	}

	return strings.Join(clauses, " AND "), args
}

// encodeValue JSON-колонки передаются готовым текстом JSON, чтобы строковые
// значения сохранялись как JSON-строки
func encodeValue(s table.Schema, column string, v any) any {
	col, ok := s.Column(column)
	if !ok || col.Kind != table.KindJSON || v == nil {
		return v
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return string(data)
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return fmt.Errorf("%w: %s", table.ErrReferenced, pgErr.ConstraintName)
	}
	return err
}

func sortedColumns(row table.Row) []string {
	cols := make([]string, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func columnList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = ident(n)
	}
	return strings.Join(quoted, ", ")
}
