package goSession

import (
	"time"

	"github.com/MrEthical07/goSession/guard"
)

// Status is a point-in-time view of the session.
type Status struct {
	Phase              guard.Phase
	Authenticated      bool
	Valid              bool
	Subject            string
	ExpiresAt          time.Time
	MinutesUntilExpiry int
}
