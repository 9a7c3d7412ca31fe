package search

import (
	"sort"
	"strings"

	"github.com/myturn/backend/internal/domain/entities"
)

const MaxIndexedTerms = 100

// BuildServiceTerms returns the normalized, de-duplicated names and categories of the
// institution's bookable services so that "blood test" finds the lab offering it.
func BuildServiceTerms(services []entities.Service) []string {
	if len(services) == 0 {
		return nil
	}

	set := make(map[string]struct{})
	for _, svc := range services {
		if svc.Status == entities.ServiceStatusClosed {
			continue
		}
		add(set, svc.Name, svc.Category, svc.Subcategory)
	}
	return toSlice(set, MaxIndexedTerms)
}

func add(set map[string]struct{}, terms ...string) {
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			set[t] = struct{}{}
		}
	}
}

func toSlice(set map[string]struct{}, limit int) []string {
	result := make([]string, 0, len(set))
	for k := range set {
		result = append(result, k)
	}
	sort.Strings(result)
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}
