package model

import (
	"strconv"
	"time"
)

// reportTimeLayout renders as MM_DD_YY_HH_MM_SS
const reportTimeLayout = "01_02_06_15_04_05"

// Round is one escalation step at a fixed check count
type Round struct {
	Number     int           `json:"number"`
	CheckCount int           `json:"check_count"`
	Workload   Workload      `json:"-"`
	Duration   time.Duration `json:"duration"`
	ReportName string        `json:"report_name"`
	StartedAt  time.Time     `json:"started_at"`
}

// ReportName returns the report file name of a round started at t
func ReportName(t time.Time, checkCount int) string {
	return t.Format(reportTimeLayout) + "_" + strconv.Itoa(checkCount)
}
