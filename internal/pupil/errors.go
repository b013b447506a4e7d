package pupil

import "errors"

// Sentinel errors for the three failure kinds the detector can surface.
// None of them are retried internally; they only ever change flags on the
// returned State (see Detect), except ErrInputDimensions and ErrEmptyROI,
// which also abort the frame early.
var (
	// ErrInputDimensions is returned when the source image or a derived
	// region has non-positive width or height.
	ErrInputDimensions = errors.New("pupil: non-positive image dimensions")

	// ErrEmptyROI is returned when the search region or the extended Haar
	// box collapses to zero width or height after clipping to the image.
	ErrEmptyROI = errors.New("pupil: region of interest is empty after clipping")

	// errNumericFailure names a conic eigensolve that produced no finite,
	// positive eigenvalue for a given arc subset. fitEllipse reports that
	// case by returning ok=false rather than this error, so it never
	// escapes Detect; the affected subset is treated as a detection miss
	// and enumeration continues.
	errNumericFailure = errors.New("pupil: eigensolve produced no usable eigenvalue")
)
