package audio

import "strconv"

// Common audio format every segment is encoded to before concatenation.
// Fixing these parameters means the concat step never has to reconcile
// mismatched streams.
const (
	Codec      = "libmp3lame"
	Bitrate    = "128k"
	SampleRate = 44100
	Channels   = 2
)

// Cue tone and pause parameters.
const (
	CueFrequencyHz = 800
	CueSeconds     = 0.6

	// PauseAfterIntroSeconds separates the announcement from the cue.
	PauseAfterIntroSeconds = 0.5
	// PauseAfterCueSeconds separates the cue from the narration.
	PauseAfterCueSeconds = 0.7
)

// cueFadeFilter fades the tone in over 50ms and out over its last 200ms.
const cueFadeFilter = "afade=t=in:st=0:d=0.05,afade=t=out:st=0.4:d=0.2"

// encodeArgs returns the FFmpeg output arguments for the common format.
func encodeArgs() []string {
	return []string{
		"-c:a", Codec,
		"-b:a", Bitrate,
		"-ar", strconv.Itoa(SampleRate),
		"-ac", strconv.Itoa(Channels),
	}
}
