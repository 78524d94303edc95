// Package oversample provides a cascade of polyphase IIR half-band stages
// for integer oversampling by 1, 2, 4 or 8.
//
// [Oversampler.Up] interpolates a host-rate block to the oversampled rate
// and returns an internal buffer; [Oversampler.Down] decimates that buffer
// back into a host-rate block. Both directions run allocation-free once the
// oversampler is built for a maximum block size.
//
// The stage nearest the host rate carries the steepest design, since it
// must protect the full audio band; later stages only have to reject images
// far above it.
package oversample
