package internal

const (
	DotEnvPath        = "./.env"
	MigrationsDir     = "migrations"
	DBTimestampLayout = "2006-01-02 15:04:05.000"

	// ProductName prefixes outbound email subjects.
	ProductName = "ReportPipe"
)
