package table

import "context"

// Row строка таблицы: имя колонки -> значение
type Row map[string]any

// Repository хранилище строк. Все операции ограничены строками владельца userID.
type Repository interface {
	Select(ctx context.Context, s Schema, userID int, f Filter) ([]Row, error)
	Insert(ctx context.Context, s Schema, userID int, row Row) (Row, error)
	Upsert(ctx context.Context, s Schema, userID int, row Row, onConflict []string) (Row, error)
	Update(ctx context.Context, s Schema, userID int, key any, row Row) (int64, error)
	Delete(ctx context.Context, s Schema, userID int, f Filter) (int64, error)
}
