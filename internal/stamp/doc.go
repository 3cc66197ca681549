// Package stamp reads the printed stamp on a disc photo and matches it
// against the catalog.
//
// Reader wraps the Tesseract engine via gosseract/v2. Photos are converted
// to grayscale, contrast-stretched and upscaled before recognition, since
// stamps are small and often foil-printed on colored plastic.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// # Matching
//
// Identify tokenizes the recognized text and scores each catalog disc by
// the share of its name tokens found (weight 2) and the share of its
// manufacturer tokens found (weight 1). A name whose tokens are split or
// joined differently by the OCR (e.g. "ROC 3" for "Roc3") still matches on
// its compacted form. Discs scoring zero are omitted.
package stamp
