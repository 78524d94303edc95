// Package response measures processed signals: windowed magnitude spectra,
// single-tone amplitudes, peak and RMS levels, and stepped-tone magnitude
// responses of block processors.
//
// A typical check of a filter engine:
//
//	points, _ := response.Sweep(proc, 48000, response.LogFrequencies(50, 20000, 24))
//	for _, pt := range points {
//	    fmt.Printf("%8.1f Hz %7.2f dB\n", pt.FrequencyHz, pt.GainDB)
//	}
package response
