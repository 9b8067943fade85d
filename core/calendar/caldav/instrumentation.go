package caldav

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/vbracun/aria-core/core/calendar/caldav"

var logger = otelslog.NewLogger(scopeName)
