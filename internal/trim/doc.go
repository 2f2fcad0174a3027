// Package trim removes leading and trailing silence from downloaded
// recordings. Silence detection delegates to ffmpeg's silencedetect
// filter; the decision policy over the detected intervals is pure and
// lives in DecidePoints. Trimming is always a container stream copy.
package trim
