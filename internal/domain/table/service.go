package table

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slog"
)

type Servicer interface {
	Select(ctx context.Context, userID int, table string, f Filter) ([]Row, error)
	Insert(ctx context.Context, userID int, table string, row Row) (Row, error)
	Upsert(ctx context.Context, userID int, table string, row Row, onConflict []string) (Row, error)
	Update(ctx context.Context, userID int, table string, key any, row Row) error
	Delete(ctx context.Context, userID int, table string, f Filter) (int64, error)
}

// Service проверяет запросы к таблицам по белому списку колонок и приводит
// значения к типам колонок перед передачей в репозиторий.
type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With("component", "table_service"),
		now:  time.Now,
	}
}

func (s *Service) Select(ctx context.Context, userID int, table string, f Filter) ([]Row, error) {
	schema, err := Lookup(table)
	if err != nil {
		return nil, err
	}
	filter, err := s.prepareFilter(schema, f)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.Select(ctx, schema, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	return rows, nil
}

func (s *Service) Insert(ctx context.Context, userID int, table string, row Row) (Row, error) {
	schema, err := Lookup(table)
	if err != nil {
		return nil, err
	}
	clean, err := s.prepareRow(schema, row)
	if err != nil {
		return nil, err
	}

	inserted, err := s.repo.Insert(ctx, schema, userID, clean)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	return inserted, nil
}

// Upsert обновляет первую строку, совпавшую по колонкам onConflict, или
// вставляет новую. Уникальность ключа хранилищем не гарантируется.
func (s *Service) Upsert(ctx context.Context, userID int, table string, row Row, onConflict []string) (Row, error) {
	schema, err := Lookup(table)
	if err != nil {
		return nil, err
	}
	if len(onConflict) == 0 {
		return nil, fmt.Errorf("%w: on_conflict", ErrEmptyFilter)
	}
	clean, err := s.prepareRow(schema, row)
	if err != nil {
		return nil, err
	}
	for _, name := range onConflict {
		if name == OwnerColumn {
			continue
		}
		if _, ok := schema.Column(name); !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table, name)
		}
		if _, ok := clean[name]; !ok {
			return nil, fmt.Errorf("%w: conflict column %s is missing in row", ErrInvalidValue, name)
		}
	}

	upserted, err := s.repo.Upsert(ctx, schema, userID, clean, onConflict)
	if err != nil {
		return nil, fmt.Errorf("upsert %s: %w", table, err)
	}
	return upserted, nil
}

func (s *Service) Update(ctx context.Context, userID int, table string, key any, row Row) error {
	schema, err := Lookup(table)
	if err != nil {
		return err
	}
	keyColumn, _ := schema.Column(schema.Key)
	typedKey, err := keyColumn.Coerce(key)
	if err != nil || typedKey == nil {
		return fmt.Errorf("%w: key %v", ErrInvalidValue, key)
	}
	clean, err := s.prepareRow(schema, row)
	if err != nil {
		return err
	}

	affected, err := s.repo.Update(ctx, schema, userID, typedKey, clean)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, userID int, table string, f Filter) (int64, error) {
	schema, err := Lookup(table)
	if err != nil {
		return 0, err
	}
	filter, err := s.prepareFilter(schema, f)
	if err != nil {
		return 0, err
	}

	scoped := 0
	for _, c := range filter {
		if c.Field != OwnerColumn {
			scoped++
		}
	}
	if scoped == 0 {
		return 0, ErrEmptyFilter
	}

	deleted, err := s.repo.Delete(ctx, schema, userID, filter)
	if err != nil {
		s.log.Debug("delete failed", "table", table, "error", err)
		return 0, fmt.Errorf("delete %s: %w", table, err)
	}
	return deleted, nil
}

// prepareRow отбрасывает колонки только для чтения и проставляет updated_at,
// если клиент его не передал
func (s *Service) prepareRow(schema Schema, row Row) (Row, error) {
	clean := make(Row, len(row)+1)
	for name, value := range row {
		col, ok := schema.Column(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, schema.Name, name)
		}
		if col.ReadOnly {
			continue
		}
		typed, err := col.Coerce(value)
		if err != nil {
			return nil, err
		}
		clean[name] = typed
	}

	if len(clean) == 0 {
		return nil, ErrEmptyRow
	}

	if schema.HasUpdatedAt() {
		if v, ok := clean[UpdatedAtColumn]; !ok || v == nil {
			clean[UpdatedAtColumn] = s.now().UTC()
		}
	}
	return clean, nil
}

func (s *Service) prepareFilter(schema Schema, f Filter) (Filter, error) {
	out := make(Filter, 0, len(f))
	for _, c := range f {
		col, ok := schema.Column(c.Field)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, schema.Name, c.Field)
		}
		typed, err := col.Coerce(c.Value)
		if err != nil {
			return nil, err
		}
		if c.Fold && col.Kind != KindText {
			return nil, fmt.Errorf("%w: case-insensitive match on non-text column %s", ErrInvalidValue, c.Field)
		}
		out = append(out, Cond{Field: c.Field, Value: typed, Fold: c.Fold})
	}
	return out, nil
}
