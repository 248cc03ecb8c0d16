// Package core implements the CSV import pipeline behind the age
// distribution page.
//
// # Pipeline
//
// A run moves one file through four stages:
//
//  1. [ParseFile] splits the CSV into [FlatRecord]s keyed by header name.
//  2. [Reshaper] turns each flat record into a [NestedRecord]: the two name
//     columns become one name, dotted address.* columns become an address
//     [Tree], the rest is kept as additional info.
//  3. [Loader] inserts all records in one transaction; a failure rolls the
//     whole batch back.
//  4. [Aggregator] counts persisted rows per age and folds the counts into
//     four fixed buckets ([AgeDistribution]).
//
// [Service] wires the stages together for the web layer. It does not own the
// store; the caller opens it, passes it in and closes it.
//
// # Input format
//
//	name.firstName,name.lastName,age,address.city,address.geo.lat
//	Ann,Lee,30,Paris,48.85
//
// Values may not contain commas: there is no quoting.
//
// # Errors
//
// Each stage has its own error type so callers can pick a response with
// errors.As: [FileReadError], [ParseError], [LoadError], [AggregateError].
// [MapError] turns any of them into a [UserMessage] with a support code.
//
// Nothing is retried. Loading the same file twice stores its rows twice.
package core
