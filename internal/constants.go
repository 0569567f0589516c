package internal

const (
	DotEnvPath         = "./.env"
	MigrationsDir      = "migrations"
	SessionCookie      = "session"
	DBTimestampLayout  = "2006-01-02 15:04:05"
	LogTimestampLayout = "2006-01-02T15:04:05.000Z"
)
