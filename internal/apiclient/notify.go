package apiclient

import (
	"github.com/cockroachdb/errors"
	"github.com/maghrebglobal/backoffice/i18n"
)

// Level is the severity of a notification shown to the operator.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelSuccess Level = "success"
)

// Notification is a user-facing notice.
type Notification struct {
	Level       Level  `json:"type"`
	Title       string `json:"message"`
	Description string `json:"description"`
}

// Success builds a success notice from i18n codes.
func Success(lang, titleCode, description string) Notification {
	return Notification{Level: LevelSuccess, Title: i18n.T(lang, titleCode), Description: description}
}

// Classify turns an error into the notice shown to the operator:
// 403 is an invalid key, 5xx a server error, a transport failure a
// connectivity warning, anything else a generic error carrying the message.
func Classify(err error, lang string) Notification {
	if err == nil {
		return Notification{}
	}
	status := StatusOf(err)
	switch {
	case status == 403 || errors.Is(err, ErrForbidden):
		return notice(LevelError, lang, "notice.forbidden")
	case status >= 500:
		return notice(LevelError, lang, "notice.server")
	case status == StatusNetwork:
		return notice(LevelWarning, lang, "notice.network")
	case status == 409:
		return notice(LevelError, lang, "notice.conflict")
	}
	desc := err.Error()
	if desc == "" {
		desc = i18n.T(lang, "notice.generic.desc")
	}
	return Notification{Level: LevelError, Title: i18n.T(lang, "notice.generic"), Description: desc}
}

func notice(level Level, lang, code string) Notification {
	return Notification{Level: level, Title: i18n.T(lang, code), Description: i18n.T(lang, code+".desc")}
}
