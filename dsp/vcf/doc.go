// Package vcf is the multi-channel voltage-controlled filter engine built
// around the nonlinear ladder of dsp/filter/ladder.
//
// Per host block, a [Processor] commits pending control changes, then for
// every channel applies the input trim, oversamples, band-limits with an
// anti-aliasing lowpass, runs the ladder solver once per oversampled
// sample, band-limits again, decimates and applies the output trim.
//
// Each channel owns its ladder state, oversampler and anti-aliasing
// filters. Controls are published through [Processor.SetParameter] from any
// goroutine and take effect at the next block boundary. Process calls never
// allocate, block or return errors; problems are counted in [Diagnostics]
// and surfaced off the audio thread by a [Reporter].
package vcf
