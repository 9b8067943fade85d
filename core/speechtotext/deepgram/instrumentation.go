package deepgram

import "go.opentelemetry.io/otel"

const scopeName = "github.com/vbracun/aria-core/core/speechtotext/deepgram"

var tracer = otel.Tracer(scopeName)
