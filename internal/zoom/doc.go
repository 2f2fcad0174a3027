// Package zoom lists and downloads Zoom cloud recordings. Listing filters
// each meeting's files down to accepted video variants and drops meetings
// with nothing left; downloading streams straight to disk.
package zoom
