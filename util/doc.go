// Package util contains small helpers shared by the runtime packages,
// primarily sanitization and redaction of sensitive values before logging.
package util
