// Package sanitizer normalizes request input before validation.
//
// All functions are idempotent and never fail: malformed input normalizes to
// an empty string, which validation then rejects.
package sanitizer
