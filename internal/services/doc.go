// Package services defines shared utilities consumed by the pipeline steps
// and external integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that let the workflow
//     manager classify failures without matching on message text.
//   - Small HTTP helpers shared by the API clients.
//
// Use these helpers when wiring new step logic so operational behaviour
// (error handling, observability, retries) stays uniform across the
// pipeline.
package services
