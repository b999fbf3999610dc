package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewSessionID returns a sortable, collision-resistant session identifier:
// a UTC timestamp for ordering plus a random suffix for uniqueness.
func NewSessionID() string {
	return fmt.Sprintf("sess-%s-%s",
		time.Now().UTC().Format("20060102-150405"),
		uuid.NewString()[:8])
}
