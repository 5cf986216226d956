package persistence

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Filter projects a set of optional criteria onto a query. Each filter
// knows its target model; composition never touches the repository.
type Filter interface {
	Model() any
	Apply(query *gorm.DB) *gorm.DB
}

// Eq appends an equality predicate when the value is set
func Eq[T comparable](query *gorm.DB, column string, value *T) *gorm.DB {
	if value == nil {
		return query
	}
	return query.Where(fmt.Sprintf("%s = ?", column), *value)
}

// In appends a set-membership predicate when the slice is non-empty
func In[T any](query *gorm.DB, column string, values []T) *gorm.DB {
	if len(values) == 0 {
		return query
	}
	return query.Where(fmt.Sprintf("%s IN ?", column), values)
}

// ILikePrefix matches strings starting with value, case-insensitive
func ILikePrefix(query *gorm.DB, column string, value *string) *gorm.DB {
	if value == nil || *value == "" {
		return query
	}
	return query.Where(fmt.Sprintf("%s ILIKE ?", column), escapeLike(*value)+"%")
}

// ILikeSuffix matches strings ending with value, case-insensitive
func ILikeSuffix(query *gorm.DB, column string, value *string) *gorm.DB {
	if value == nil || *value == "" {
		return query
	}
	return query.Where(fmt.Sprintf("%s ILIKE ?", column), "%"+escapeLike(*value))
}

// ILikeContains matches strings containing value, case-insensitive
func ILikeContains(query *gorm.DB, column string, value *string) *gorm.DB {
	if value == nil || *value == "" {
		return query
	}
	return query.Where(fmt.Sprintf("%s ILIKE ?", column), "%"+escapeLike(*value)+"%")
}

// Search expands a free-text value into an OR of case-insensitive
// substring matches over the filter's declared search columns.
func Search(query *gorm.DB, columns []string, value *string) *gorm.DB {
	if value == nil || *value == "" || len(columns) == 0 {
		return query
	}
	pattern := "%" + escapeLike(*value) + "%"
	clauses := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, column := range columns {
		clauses[i] = fmt.Sprintf("%s ILIKE ?", column)
		args[i] = pattern
	}
	return query.Where(strings.Join(clauses, " OR "), args...)
}

// Nested applies a prefixed child filter across a joined relation. The
// join clause is declared by the parent filter; the child applies its
// own fields with its columns qualified by the joined table.
func Nested(query *gorm.DB, joinClause string, child Filter) *gorm.DB {
	if child == nil {
		return query
	}
	return child.Apply(query.Joins(joinClause))
}

// escapeLike escapes LIKE metacharacters in user-supplied patterns
func escapeLike(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `%`, `\%`)
	value = strings.ReplaceAll(value, `_`, `\_`)
	return value
}
