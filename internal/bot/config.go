package bot

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Defaults for freshly registered users
	DefaultMaxReviews       int
	DefaultMaxNewCards      int
	DefaultNotificationHour int
	// Window for the failed cards session, in days
	FailedWindowDays int
	// How far back the answer screen looks for past attempts, in days
	HistoryDays int
	// How many archived cards one page shows
	ArchivePageSize int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		DefaultMaxReviews:       50,
		DefaultMaxNewCards:      20,
		DefaultNotificationHour: 9,
		FailedWindowDays:        7,
		HistoryDays:             30,
		ArchivePageSize:         10,
	}
}
