package services

import (
	"prosthelab-backend/utils"
	"time"
)

// Clock supplies "today" for auto-stamped completion dates and default
// transaction dates. Tests pin it to a fixed day.
type Clock interface {
	Today() time.Time
}

type SystemClock struct{}

func (SystemClock) Today() time.Time {
	return utils.BeginningOfDay(time.Now())
}
