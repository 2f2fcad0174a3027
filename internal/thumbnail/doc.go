// Package thumbnail generates video thumbnails from pattern templates.
//
// A template is a directory holding a base layout image, a prompt with
// {variable} placeholders, and a settings file. The engine resolves the
// work item's pattern to a template, fills the prompt from the item's
// fields, attaches the pattern's auxiliary image, and asks the image
// model to compose the result. Responses without image data are retried
// a bounded number of times before the item is reported as exhausted.
//
// An optional vision pass compares the generated image against the
// template and regenerates on layout defects. The pass fails open: a
// missing or unreadable verdict never blocks an item.
package thumbnail
