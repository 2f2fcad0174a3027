// Package youtube publishes videos over the Data API v3 resumable
// upload protocol: open a session, stream fixed-size chunks with
// Content-Range headers, accept 308 for intermediate chunks, and read
// the video id from the final chunk's response.
package youtube
