package hatanaka

import "errors"

// Errors returned while compressing an observation file to its Hatanaka
// compact representation.
var (
	// ErrNotObsRinexData is returned when the header handed to Compress
	// does not describe an observation data file.
	ErrNotObsRinexData = errors.New("hatanaka: not an observation data file")

	// ErrMalformedEpochDescriptor is returned when a line expected to carry
	// the satellite count field cannot be parsed.
	ErrMalformedEpochDescriptor = errors.New("hatanaka: malformed epoch descriptor")

	// ErrVehiculeIdentificationError is returned when the satellite
	// identifier extracted from the epoch descriptor is not a valid PRN.
	ErrVehiculeIdentificationError = errors.New("hatanaka: could not identify satellite vehicule")

	// ErrMalformedEpochBody is returned when an observation line cannot be
	// split into the expected fixed-width fields.
	ErrMalformedEpochBody = errors.New("hatanaka: malformed epoch body")

	// ErrKernelInit is returned when a differentiator is asked to (re)seed
	// with an invalid compression order.
	ErrKernelInit = errors.New("hatanaka: kernel initialization error")
)
