package utils

import (
	"fmt"
	"strings"

	"research-review-api/models"
)

var (
	statusCodeSynonyms = map[models.PaperStatus][]string{
		models.StatusPendingFaculty: {
			"pending-faculty",
			"faculty",
			"faculty_review",
		},
		models.StatusPending: {
			"submitted",
		},
		models.StatusPendingEditor: {
			"pending-editor",
			"editor",
			"editor_review",
			"staff_review",
		},
		models.StatusPendingAdmin: {
			"pending-admin",
			"admin",
			"admin_review",
		},
		models.StatusUnderReview: {
			"under-review",
			"reviewing",
		},
		models.StatusRevisionRequired: {
			"revision-required",
			"revision",
			"needs_revision",
			"needs_more_info",
		},
		models.StatusApproved: {
			"published",
			"accepted",
		},
		models.StatusRejected: {
			"declined",
		},
	}
	statusAliasToCanonical = buildStatusAliasMap()
)

func buildStatusAliasMap() map[string]models.PaperStatus {
	aliasMap := make(map[string]models.PaperStatus)
	for canonical, synonyms := range statusCodeSynonyms {
		aliasMap[normalizeStatusCode(string(canonical))] = canonical
		for _, alias := range synonyms {
			if normalized := normalizeStatusCode(alias); normalized != "" {
				aliasMap[normalized] = canonical
			}
		}
	}
	return aliasMap
}

func normalizeStatusCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// ParseStatus resolves a status query value, accepting the canonical code or
// one of its aliases. An empty value yields an empty status.
func ParseStatus(code string) (models.PaperStatus, error) {
	normalized := normalizeStatusCode(code)
	if normalized == "" {
		return "", nil
	}
	if status, ok := statusAliasToCanonical[normalized]; ok {
		return status, nil
	}
	return "", fmt.Errorf("unknown status %q", code)
}
