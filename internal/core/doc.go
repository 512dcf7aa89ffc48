// Package core provides the session logic of the certificate batch tool.
//
// This package holds all behaviour independent of any transport. It is used
// by the web handlers and the command line tool without modification.
//
// # Architecture
//
//   - Upload: a file is decoded by package tabular, run through the ingest
//     pipeline and, if it yields candidates, replaces the batch.
//   - Manual entry: a single candidate for one course is appended.
//   - Batch run: [Service.StartBatch] generates every missing certificate in
//     the background, one at a time. Progress is broadcast to subscribers via
//     [Service.SubscribeProgress]. Only one run exists at a time.
//   - Export: [Service.ExportBatch] summarises the completed candidates.
//
// # Failure Isolation
//
// Decode errors reject the whole upload and leave the batch as it was. A
// certificate that fails to render marks only its candidate as failed; the
// run continues with the next candidate. Running again retries only the
// certificates that are still missing.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference:
//
//   - FILE001-FILE005: file errors (size, type, corrupt, missing, too few rows)
//   - VAL001-VAL003: validation errors (no candidates, columns, manual entry)
//   - BAT001-BAT003: batch errors (already running, nothing to process, unknown candidate)
//   - UPL002-UPL005: busy, cancelled, timed out
//   - AUTH001: wrong password
package core
