package clauses

import "errors"

var (
	// ErrUnparsableOutput indicates the model output is not structured data of the requested shape.
	ErrUnparsableOutput = errors.New("unparsable model output")

	// ErrShapeMismatch indicates parsed output violated a length or field invariant and was repaired.
	ErrShapeMismatch = errors.New("model output shape mismatch")

	// ErrEmptyResult indicates the output had the right shape but no usable content.
	ErrEmptyResult = errors.New("empty model result")
)
