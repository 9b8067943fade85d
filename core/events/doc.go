// Package events defines the typed pipeline event contract.
//
// Event kinds are grouped by stage-facing namespaces:
//
//   - transcription.*
//   - intent.*
//   - tool_call.*
//   - response.*
//   - pipeline.*
//
// A single request emits at most one transcription.final event (audio
// input only), any number of intermediate intent/tool_call events, and
// exactly one terminal event: one of the response.* kinds or
// pipeline.failed.
package events
