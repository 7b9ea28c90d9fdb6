package constants

// SessionState represents the current tab or modal of the TUI application
type SessionState int

const (
	AppName            = "fitbuddy"
	DefaultKeyringUser = "gemini-api-key"
	DefaultPGKeyring   = "database-connection"
	DefaultConfigPath  = "~/.config/fitbuddy/data"
	DefaultConfigFile  = "~/.config/fitbuddy/config.json"
	Version            = "v0.3.0"

	// DateFormat is the storage key format for a day (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Storage keys
	DailyDataKey     = "fitBuddyAIDailyData"
	LatestLogDateKey = "fitBuddyAILatestLogDate"

	// Default daily targets
	DefaultTargetCalories = 2200
	DefaultTargetProtein  = 150
	DefaultTargetCarbs    = 250
	DefaultTargetFat      = 70

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "fitbuddy-"

	// Lock constants
	LockfileName = "fitbuddy.lock"
)

// Session States. The first TabCount values are the top-level tabs.
const (
	StateToday SessionState = iota
	StateProgress
	StateChat
	StateLive
	StateAddMeal
	StateAddTraining
	StateSetWeight
	StateSetTargets
	StateAnalyzePhoto
	StateAnalyzing
	StateConfirmDelete
)

// TabCount is the number of top-level TUI tabs (Today, Progress, Chat, Live).
const TabCount = 4
