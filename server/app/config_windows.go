//go:build windows
// +build windows

package app

const (
	defaultSQLiteConnectionString = "file:C:\\ProgramData\\Connections\\db\\sqlite.db?cache=shared"
	defaultNamingConventionsFile  = "C:\\ProgramData\\Connections\\naming-conventions.yaml"
)
