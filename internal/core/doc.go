// Package core provides the business logic for combining CSV files.
//
// This package holds all domain logic independent of any UI or transport
// layer. It is driven by the web server, the CLI and tests alike.
//
// # Pipeline
//
// Three pure functions define correctness:
//
//   - [Parse] splits one document into a header and rows.
//   - [Combine] unions the columns of many tables, first-seen order, and
//     reshapes every row to that union.
//   - [Serialize] renders a table back to CSV with minimal quoting.
//
// They never fail and never share state, so documents may be parsed in
// parallel; [ParseAll] does so while keeping input order:
//
//	tables, err := core.ParseAll(ctx, docs, 4)
//	combined := core.Combine(tables)
//	text := core.Serialize(combined)
//
// # Sessions
//
// A [Session] is one user's working set of registered files. Files are added
// in batches with [Session.Register]; a batch that would exceed the file
// limit is rejected whole, while per-file problems (extension, unreadable
// content) are reported without stopping the rest of the batch.
// [Session.Artifact] produces combined-data.csv.
//
// A [Store] keeps sessions in memory and reaps idle ones. A [Service] ties
// a store to a server-wide [BatchLimiter].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE004: File errors (extension, unreadable, size, missing)
//   - SES001-SES003: Session errors (file limit, unknown file, expired)
//   - UPL002-UPL005: Request errors (busy, cancelled, timeout)
package core
