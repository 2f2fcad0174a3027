// Package ffprobe shells out to ffprobe for container inspection. The trim
// engine uses it for the total duration that anchors the trailing-silence
// decision.
package ffprobe
