// Package design provides second-order IIR coefficient designers.
//
// The designers return biquad coefficients consumable by dsp/filter/biquad.
// Only the lowpass family is needed by the anti-aliasing stages of the
// ladder engine: an RBJ lowpass with arbitrary Q and its maximally flat
// (2-pole Butterworth) special case.
package design
