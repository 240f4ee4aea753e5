package redis

import "fmt"

// Key prefix for all relay channels
const keyPrefix = "spacetime"

// activityChannel returns the pub/sub channel for lobby activity
func activityChannel() string {
	return fmt.Sprintf("%s:activity", keyPrefix)
}
