// Package player plays audio through the filter engine in real time.
//
// A Stream renders blocks on demand from its Read method, which the oto
// device goroutine calls. That goroutine is the audio thread: it owns the
// engine's process calls while the UI goroutine only publishes parameter
// changes through SetParameter.
package player
