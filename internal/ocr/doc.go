// Package ocr reads text from finished scans with Tesseract.
//
// It wraps the Tesseract engine through gosseract/v2. Images are handed over
// in memory as PNG, so no temporary files are created.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// # Languages
//
// The default language is English ("eng"). Other Tesseract codes such as
// "deu" or "fra" work when their data files are installed, and several can
// be combined with "+", for example "eng+deu".
//
// # Error Handling
//
// Recognition fails when the buffer is invalid, the language is missing or
// Tesseract cannot be initialised. If word boxes cannot be read, Recognize
// still returns the text with an empty Regions slice.
package ocr
