package internal

import (
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewClientToken returns a fresh client token: a random UUID rendered as 32
// lowercase hex digits, the format the public authentication server issues.
func NewClientToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}

// NewTaskID returns a lexically sortable task identifier.
func NewTaskID() string {
	return ulid.Make().String()
}
