package google

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/vbracun/aria-core/core/calendar/google"

var logger = otelslog.NewLogger(scopeName)
