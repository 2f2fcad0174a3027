// Command reelpress runs the video production pipeline: it matches
// cloud meeting recordings against a task database, trims silence,
// generates thumbnails, publishes to YouTube, and records the results.
package main
