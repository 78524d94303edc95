// Package halfband implements polyphase IIR half-band filters for 2x
// sample-rate conversion.
//
// A half-band lowpass is realized as the sum of two chains of first-order
// allpass sections running at the low rate:
//
//	H(z) = 0.5 * (A0(z^2) + z^-1 * A1(z^2))
//
// Coefficients come from an elliptic design ([DesignCoefficients]); the
// even-indexed coefficients form A0 and the odd-indexed ones A1. A [Stage]
// uses the same design for interpolation ([Stage.Upsample]) and decimation
// ([Stage.Downsample]) with independent delay lines for each direction.
package halfband
