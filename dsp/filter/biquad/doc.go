// Package biquad provides the second-order IIR runtime used by the
// anti-aliasing stage of the ladder engine.
//
// A [Section] implements Direct Form II Transposed processing for a single
// second-order section defined by [Coefficients]. Coefficients can be
// swapped with [Section.SetCoefficients] without clearing the delay line, so
// a running stream can be retuned at block boundaries.
//
// Coefficient design lives in dsp/filter/design.
package biquad
