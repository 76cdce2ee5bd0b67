package util

import (
	"strings"
)

// FilterOSArgs returns args with masked values for all flags not on whitelist.
// Both "--flag value" and "--flag=value" forms are masked.
func FilterOSArgs(args []string, whitelist []string) []string {
	var (
		sanitized           = make([]string, len(args))
		sanitizeNext        = false
		whitelistByFlagName = make(map[string]struct{}, len(whitelist))
	)
	for _, name := range whitelist {
		whitelistByFlagName[name] = struct{}{}
	}
	for i, arg := range args {
		if strings.HasPrefix(arg, "--") {
			name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
			_, safe := whitelistByFlagName[strings.ToLower(name)]
			switch {
			case hasValue && !safe:
				sanitized[i] = "--" + name + "=" + strings.Repeat("*", len(value))
				sanitizeNext = false
			case hasValue:
				sanitized[i] = arg
				sanitizeNext = false
			default:
				sanitized[i] = arg
				sanitizeNext = !safe
			}
		} else {
			if sanitizeNext {
				sanitized[i] = strings.Repeat("*", len(arg))
				sanitizeNext = false
			} else {
				sanitized[i] = arg
			}
		}
	}
	return sanitized
}
