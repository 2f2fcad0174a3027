// Package workflow orchestrates the production pipeline.
//
// A run has two passes. The retry pass re-attempts items in the
// retryable error state by re-locating their recordings around the
// item's scheduled start; an item whose recording still cannot be found
// is skipped without a status change so the next run can try again. The
// new-work pass lists recent cloud recordings and processes every one
// that matches a pending item by start time.
//
// Each matched item moves through claim, download, silence trim,
// thumbnail generation, publish, thumbnail set, announcement, and
// archival. Failures are contained to the item: the item transitions to
// the retryable error state, or to the manual state once its retry
// budget is spent, and the run continues with the next item. Only the
// announcement is best effort; a failed thumbnail set or archive write
// fails the item even though the video is already published.
//
// A file lock in the staging directory keeps runs serialized per
// machine; the manager is the only writer that moves items out of the
// pending state.
package workflow
