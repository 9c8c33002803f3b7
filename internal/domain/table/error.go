package table

import "errors"

var (
	ErrUnknownTable  = errors.New("unknown table")
	ErrUnknownColumn = errors.New("unknown column")
	ErrInvalidValue  = errors.New("invalid column value")
	ErrEmptyFilter   = errors.New("filter must not be empty")
	ErrEmptyRow      = errors.New("row must not be empty")
	ErrNotFound      = errors.New("row not found")
	// ErrReferenced строку нельзя удалить, на нее ссылаются другие таблицы
	ErrReferenced = errors.New("row is referenced by another table")
)

// CodeForeignKeyViolation код ошибки в ответе API для ErrReferenced
const CodeForeignKeyViolation = "foreign_key_violation"
