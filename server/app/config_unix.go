//go:build !windows
// +build !windows

package app

const (
	defaultSQLiteConnectionString = "file:/var/lib/connections/db/sqlite.db?cache=shared"
	defaultNamingConventionsFile  = "/etc/connections/naming-conventions.yaml"
)
