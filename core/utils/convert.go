package utils

import (
	"github.com/google/uuid"
)

// ToUUID parses a path or query parameter into a UUID.
func ToUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// UUIDsEqualSet reports whether two id slices contain the same set of
// ids, ignoring order and duplicates.
func UUIDsEqualSet(a, b []uuid.UUID) bool {
	seen := make(map[uuid.UUID]struct{}, len(a))
	for _, id := range a {
		seen[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := seen[id]; !ok {
			return false
		}
	}
	other := make(map[uuid.UUID]struct{}, len(b))
	for _, id := range b {
		other[id] = struct{}{}
	}
	for _, id := range a {
		if _, ok := other[id]; !ok {
			return false
		}
	}
	return true
}
