package audio

// Decoder defines the interface for all audio format decoders.
// Implementations return mono float64 samples in [-1.0, 1.0];
// multi-channel sources are downmixed by averaging.
type Decoder interface {
	// ReadChunk reads up to numSamples mono samples.
	// Returns io.EOF when the stream is exhausted.
	ReadChunk(numSamples int) ([]float64, error)

	// SampleRate returns the audio sample rate in Hz
	SampleRate() int

	// NumChannels returns the number of channels in the source
	// (1=mono, 2=stereo) before downmixing
	NumChannels() int

	// Close closes the decoder and releases resources
	Close() error
}
