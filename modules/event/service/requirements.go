package service

import (
	"fmt"
	"strings"

	"shiftboard-api/modules/event/entity"

	"github.com/google/uuid"
)

const propertyTypeBoolean = "boolean"

// RequirementValidator evaluates minimum-matching-user rules against a
// hypothetical assignment set.
type RequirementValidator struct{}

func NewRequirementValidator() *RequirementValidator {
	return &RequirementValidator{}
}

// Evaluate checks every required rule against the hypothetical assigned
// users. An unmet rule is blocking when the change fills the last open
// slot (no more helpers can be added to correct it); otherwise it is a
// warning the caller may acknowledge.
func (v *RequirementValidator) Evaluate(assigned []uuid.UUID, rules []entity.RequirementRule, values []entity.UserPropertyValue, capacityReachedAfterChange bool) entity.RequirementResult {
	result := entity.RequirementResult{
		Blocking: []string{},
		Warning:  []string{},
	}

	// propertyID -> userID -> value
	byProperty := make(map[uuid.UUID]map[uuid.UUID]entity.UserPropertyValue)
	for _, val := range values {
		if byProperty[val.PropertyID] == nil {
			byProperty[val.PropertyID] = make(map[uuid.UUID]entity.UserPropertyValue)
		}
		byProperty[val.PropertyID][val.UserID] = val
	}

	for _, rule := range rules {
		if !rule.IsRequired {
			continue
		}

		matchingCount := 0
		for _, userID := range assigned {
			val, ok := byProperty[rule.PropertyID][userID]
			if ok && satisfies(rule.PropertyType, val.Value) {
				matchingCount++
			}
		}

		effectiveMinimum := rule.MinMatchingUsers
		if effectiveMinimum == entity.MinMatchingAllAssigned {
			effectiveMinimum = len(assigned)
		}

		if matchingCount >= effectiveMinimum {
			continue
		}

		msg := fmt.Sprintf("at least %d assigned helpers must have %q (%d currently do)",
			effectiveMinimum, rule.PropertyName, matchingCount)
		if capacityReachedAfterChange {
			result.Blocking = append(result.Blocking, msg)
		} else {
			result.Warning = append(result.Warning, msg)
		}
	}

	return result
}

// satisfies implements "has a value": boolean properties must normalize
// to "true" or "1"; everything else must be non-empty after trimming.
func satisfies(propertyType string, value *string) bool {
	if value == nil {
		return false
	}
	trimmed := strings.TrimSpace(*value)
	if propertyType == propertyTypeBoolean {
		normalized := strings.ToLower(trimmed)
		return normalized == "true" || normalized == "1"
	}
	return trimmed != ""
}
