package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	MinPropertyNameLength = 3
	MinSurface            = 10
	MinConstructionYear   = 1900
)

// ValidationErrors maps a property-info field to its error message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+v[field])
	}
	return "invalid property info: " + strings.Join(parts, "; ")
}

// ValidatePropertyInfo checks the form before it may be saved. It returns nil when valid.
func ValidatePropertyInfo(info PropertyInfo, now time.Time) error {
	errs := ValidationErrors{}

	name := strings.TrimSpace(info.Name)
	switch {
	case name == "":
		errs["name"] = "name is required"
	case len([]rune(name)) < MinPropertyNameLength:
		errs["name"] = fmt.Sprintf("name must be at least %d characters", MinPropertyNameLength)
	}
	if info.Surface != nil && *info.Surface < MinSurface {
		errs["surface"] = fmt.Sprintf("surface must be at least %d", MinSurface)
	}
	if info.Floors != nil && *info.Floors < 0 {
		errs["floors"] = "floors cannot be negative"
	}
	if info.ConstructionYear != nil {
		year := *info.ConstructionYear
		if year < MinConstructionYear || year > now.Year() {
			errs["constructionYear"] = fmt.Sprintf("construction year must be between %d and %d", MinConstructionYear, now.Year())
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
