package model

import "fmt"

// Check represents one synthetic service definition
type Check struct {
	Name  string `json:"name"`
	Sleep int    `json:"sleep"` // simulated execution time in seconds
}

// Workload is the ordered set of checks generated for one round
type Workload []Check

// CheckName returns the service description used for a check sleeping n seconds
func CheckName(sleep int) string {
	return fmt.Sprintf("autogen_sleep_%d", sleep)
}
