// Package imaging implements the disc photo analysis stages.
//
// A photo of a disc-golf disc goes through five pure stages:
//
//  1. SampleBackground averages the four corners into a BackgroundEstimate.
//  2. DetectDiscRadius casts 120 rays inward from the image center and
//     measures where each ray first leaves the background.
//  3. PlanCrop turns the radius into a square CropRect that always lies
//     inside the image.
//  4. Rasterize renders the crop into a 400×400 icon and encodes it as a
//     data URI.
//  5. SampleDominantColor picks one color from the center of the (cropped)
//     photo for color-only placeholders.
//
// LoadSource turns paths, uploads, data URIs and URLs into decoded images
// and reports ErrDecode, ErrAccessDenied or ErrDegenerate when it cannot.
//
// LocateDisc and Overlay are diagnostics. LocateDisc finds the disc by
// circle voting so callers can tell when it is too far off center for the
// radial scan; Overlay draws what the stages measured.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Rays are cast from
// (width/2, height/2).
//
// # Thread Safety
//
// Every stage allocates its own buffers and keeps no package state, so
// stages can run concurrently on the same or different images. ImageCache
// is safe for concurrent use.
//
// # Color Representation
//
// Colors are 8-bit RGB. Hex strings use the upper-case "#RRGGBB" form and
// HSL values are derived with go-colorful.
package imaging
