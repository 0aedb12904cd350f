package utils

import (
	"time"
)

// KST is fixed at UTC+9; Korea has no daylight saving.
var KST = time.FixedZone("KST", 9*60*60)

const NotificationTimeLayout = "06-01-02 15:04:05"

// FormatKST renders t in KST as yy-mm-dd HH:MM:SS.
func FormatKST(t time.Time) string {
	return t.In(KST).Format(NotificationTimeLayout)
}
