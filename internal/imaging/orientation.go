package imaging

import (
	"image"
	"strconv"

	exif "github.com/dsoprea/go-exif/v3"
	"github.com/disintegration/imaging"
)

// orientationTagID is the EXIF Orientation tag in IFD0.
const orientationTagID = 0x0112

// readOrientation returns the EXIF orientation (1-8) of an encoded image,
// or 1 when the payload carries no usable EXIF block.
func readOrientation(data []byte) int {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return 1
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return 1
	}

	for _, entry := range entries {
		if entry.TagId != orientationTagID || entry.IfdPath != "IFD" {
			continue
		}
		if v, ok := entry.Value.([]uint16); ok && len(v) > 0 {
			return validOrientation(int(v[0]))
		}
		if n, err := strconv.Atoi(entry.FormattedFirst); err == nil {
			return validOrientation(n)
		}
	}
	return 1
}

func validOrientation(o int) int {
	if o < 1 || o > 8 {
		return 1
	}
	return o
}

// applyOrientation transforms img so that it displays upright for the given
// EXIF orientation.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
