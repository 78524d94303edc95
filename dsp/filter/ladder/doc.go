// Package ladder implements a transistor-ladder low-pass filter as a
// nonlinear circuit model.
//
// Four one-pole RC stages are coupled through tanh saturators and closed by
// a global feedback path from the last stage to the input. The implicit
// trapezoidal discretization of that circuit has no closed-form solution;
// [Solver] resolves it per sample by fixed-point iteration on the last
// stage voltage, with an iteration cap so the cost per sample is bounded.
//
// The package is split into three parts:
//   - [Mapper] holds the two user controls (feedback gain K and cutoff f0)
//     in lock-free single-slot mailboxes and turns them into solver
//     [Parameters] at block boundaries.
//   - [Solver] advances a [State] by one sample.
//   - [Filter] combines both into a single-channel processor running at a
//     fixed rate, without oversampling. The multi-channel oversampled engine
//     lives in dsp/vcf.
package ladder
