package logger

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// RedactedPlaceholder replaces the value of any log field considered sensitive.
const RedactedPlaceholder = "[redacted]"

var defaultSensitiveFieldNames = []string{
	"value",
	"props",
	"secret",
	"secret_text",
	"password",
	"token",
	"access_token",
	"refresh_token",
	"client_secret",
	"api_key",
	"authorization",
}

// RedactionHook is a logrus hook that replaces the values of sensitive fields before an entry is written.
// Field names are matched case-insensitively.
type RedactionHook struct {
	sensitive map[string]struct{}
}

func NewRedactionHook(extraFieldNames ...string) *RedactionHook {
	h := &RedactionHook{sensitive: make(map[string]struct{})}
	for _, name := range append(defaultSensitiveFieldNames, extraFieldNames...) {
		h.sensitive[strings.ToLower(name)] = struct{}{}
	}
	return h
}

func (h *RedactionHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *RedactionHook) Fire(entry *logrus.Entry) error {
	for k := range entry.Data {
		if _, ok := h.sensitive[strings.ToLower(k)]; ok {
			entry.Data[k] = RedactedPlaceholder
		}
	}
	return nil
}
