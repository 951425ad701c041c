package speech

// Default voice for Azure TTS.
// Full list: https://learn.microsoft.com/en-us/azure/ai-services/speech-service/language-support
const DefaultVoice = "en-US-AvaNeural"

// DefaultElevenLabsVoice is "Rachel".
const DefaultElevenLabsVoice = "21m00Tcm4TlvDq8ikWAM"

// Playback format. Azure is asked for riff-24khz-16bit-mono-pcm and
// ElevenLabs for pcm_24000 so a single oto context can play both.
const (
	DefaultAudioFormat = "riff-24khz-16bit-mono-pcm"
	PlaybackRate       = 24000
	ChannelCount       = 1
	BitDepth           = 16
)

// CaptureRate is the microphone sample rate whisper expects.
const CaptureRate = 16000
