package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./librarium.db"

	// DefaultLoanPeriodDays is how long a member may keep a book
	DefaultLoanPeriodDays = 14
)
