// Package logging wires log/slog with the console and JSON handlers used
// by the reelpress CLI and pipeline, plus shared attribute helpers so the
// same field names appear everywhere.
package logging
