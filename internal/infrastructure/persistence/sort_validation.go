package persistence

import "strings"

// ValidateSortOrder normalizes a sort direction to ASC or DESC,
// defaulting to ASC for anything unrecognized.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "DESC") {
		return "DESC"
	}
	return "ASC"
}

// ValidateSortField checks a sort field against an allowlist and falls
// back to defaultField. Sort fields reach ORDER BY as identifiers, so
// they must never come from user input unchecked.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" || !allowedFields[trimmed] {
		return defaultField
	}
	return trimmed
}

// CommonSortFields are accepted by every entity router
var CommonSortFields = map[string]bool{
	"id": true,
}

// OrganizationSortFields are accepted by the organization router
var OrganizationSortFields = map[string]bool{
	"id":         true,
	"iin_bin":    true,
	"name_ru":    true,
	"date_start": true,
	"date_stop":  true,
}

// OrderSortFields are accepted by the order router
var OrderSortFields = map[string]bool{
	"id":         true,
	"status_id":  true,
	"created_at": true,
	"updated_at": true,
}
