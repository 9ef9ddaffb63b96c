package spectral

// SpectralCentroid computes the spectral centroid (center of mass) of a spectrum
type SpectralCentroid struct {
	sampleRate int
	freqBins   []float64
}

// NewSpectralCentroid creates a new spectral centroid calculator
func NewSpectralCentroid(sampleRate int) *SpectralCentroid {
	return &SpectralCentroid{
		sampleRate: sampleRate,
	}
}

// Compute returns the magnitude-weighted mean frequency of one spectrum in Hz.
// A spectrum with no energy has centroid 0.
func (sc *SpectralCentroid) Compute(spectrum []float64) float64 {
	if len(spectrum) < 2 {
		return 0.0
	}

	if len(sc.freqBins) != len(spectrum) {
		sc.freqBins = binFrequencies(len(spectrum), sc.sampleRate)
	}

	numerator := 0.0
	denominator := 0.0
	for i, mag := range spectrum {
		numerator += sc.freqBins[i] * mag
		denominator += mag
	}

	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// ComputeFrames processes every frame of a magnitude spectrogram
func (sc *SpectralCentroid) ComputeFrames(spectrogram [][]float64) []float64 {
	centroids := make([]float64, len(spectrogram))
	for t, spectrum := range spectrogram {
		centroids[t] = sc.Compute(spectrum)
	}
	return centroids
}

// binFrequencies returns the frequency of each bin of a one-sided spectrum
func binFrequencies(numBins, sampleRate int) []float64 {
	bins := make([]float64, numBins)
	if numBins < 2 {
		return bins
	}
	fftSize := float64((numBins - 1) * 2)
	for i := range numBins {
		bins[i] = float64(i) * float64(sampleRate) / fftSize
	}
	return bins
}
