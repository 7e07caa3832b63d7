// Package domain models the date-field events carried over Kafka.
//
// # Source messages
//
// Each message on the source topic is one interaction with one date field,
// encoded as JSON and keyed by field id:
//
//	{"field_id": "checkout", "type": "blur", "value": "02/15/2020"}
//
// Event types mirror the field's operations: configure, input, blur, open,
// close, select, today, next, prev, sync, commit and flush. A configure event
// carries the field configuration and (re)creates the field; every other
// event addresses a field that already exists. When field_id is absent the
// message key is used.
//
// # Sink messages
//
// Whenever a field notifies its listener a date_selected notification is
// published, keyed by field id:
//
//	{"id": "...", "field_id": "checkout", "type": "date_selected",
//	 "value": "01/31/2020", "cause": "blur", "emitted_at": "..."}
//
// value is null when the field was cleared.
//
// # ID Generation
//
// Event and notification ids are truncated SHA-256 hashes of their identifying
// parts (field id, type, topic position or emission time), so a replayed
// source message yields the same event id. See [generateID].
package domain
