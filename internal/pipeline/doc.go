// Package pipeline composes the imaging stages into one call per photo.
//
// Process loads a source, estimates the background, detects the disc
// radius, plans the crop, renders the 400×400 icon and samples the dominant
// color. It never returns an error: a source that cannot be read or decoded
// resolves to the original reference and the default color, and a failed
// render resolves to the original reference and the color of the original
// photo. The reason is reported in Result.Fallback.
//
// A Pipeline holds only configuration, so one instance can serve any number
// of concurrent calls. BatchProcessor runs several slots at once with a
// concurrency limit, and Sequencer discards results that were superseded by
// a newer submission for the same slot.
package pipeline
