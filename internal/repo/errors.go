package repo

import "errors"

// Сигнальные ошибки репозиториев. API слой мапит их на HTTP статусы,
// pipeline и scheduler различают по ним бизнес-ситуации.
var (
	// ErrNotFound — запись отсутствует.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists — нарушение уникальности (дубликат webhook'а,
	// повторная комиссия, конкурирующий lock).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidState — операция неприменима к текущему статусу записи.
	ErrInvalidState = errors.New("invalid state")
)
