package common

import (
	"errors"

	"github.com/lib/pq"
)

// Коды ошибок PostgreSQL, которые разбираются явно.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsUniqueViolation сообщает, что запрос нарушил уникальный индекс.
func IsUniqueViolation(err error) bool {
	return hasPQCode(err, pgUniqueViolation)
}

// IsForeignKeyViolation сообщает о ссылке на несуществующую запись.
func IsForeignKeyViolation(err error) bool {
	return hasPQCode(err, pgForeignKeyViolation)
}

// ConstraintName возвращает имя нарушенного ограничения или пустую строку.
func ConstraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}

func hasPQCode(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}
