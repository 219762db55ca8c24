package capture

import "fmt"

// FormatDuration renders a non-negative number of seconds as HH:MM:SS.
// Hours are not wrapped at 24.
func FormatDuration(seconds int) string {
	hours := seconds / 3600
	seconds %= 3600
	minutes := seconds / 60
	seconds %= 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
