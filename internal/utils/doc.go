// Package utils provides small low-level helpers: a generic pointer helper,
// JSON stringification and truncation for bounded debug strings, and a simple
// elapsed-time timer. No other package in this module imports it.
//
// Key entry points: [Ptr] for converting values to pointers, [JSONToString]
// and [TruncateString] for building bounded debug strings, and [Timer] for
// measuring elapsed wall-clock time.
package utils
