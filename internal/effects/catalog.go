package effects

import "strings"

// Effect identifies one audio transform from the fixed vocabulary.
type Effect string

const (
	None           Effect = "none"
	AmplifyBass    Effect = "amplify-bass"
	AmplifyTreble  Effect = "amplify-treble"
	Echo           Effect = "echo"
	Reverb         Effect = "reverb"
	SpeedUp        Effect = "speed-up"
	AmplifyVolume  Effect = "amplify-volume"
	Distortion     Effect = "distortion"
	PitchShiftUp   Effect = "pitch-shift-up"
	PitchShiftDown Effect = "pitch-shift-down"
	Robotize       Effect = "robotize"
)

// Spec holds the transform parameters for one effect.
type Spec struct {
	Effect      Effect
	Title       string
	Description string

	// Filter is the ffmpeg audio filter graph for the local backend.
	Filter string

	// RemoteID is the effect identifier understood by the remote media API.
	RemoteID string
}

// catalog is the single source of effect parameters. Never mutated at runtime.
var catalog = []Spec{
	{
		Effect:      AmplifyBass,
		Title:       "Amplify bass",
		Description: "Boost the low frequencies of a voice message",
		Filter:      "bass=g=5",
		RemoteID:    "bass_boost",
	},
	{
		Effect:      AmplifyTreble,
		Title:       "Amplify treble",
		Description: "Boost the high frequencies of a voice message",
		Filter:      "treble=g=5",
		RemoteID:    "treble_boost",
	},
	{
		Effect:      Echo,
		Title:       "Add echo",
		Description: "Overlay a trailing echo on a voice message",
		Filter:      "aecho=0.8:0.5:6:0.4",
		RemoteID:    "echo",
	},
	{
		Effect:      Reverb,
		Title:       "Add reverb",
		Description: "Add room reverberation to a voice message",
		Filter:      "areverse,aecho=0.8:0.5:6:0.4,areverse",
		RemoteID:    "reverb",
	},
	{
		Effect:      SpeedUp,
		Title:       "Speed up",
		Description: "Play the voice message 1.5x faster",
		Filter:      "atempo=1.5",
		RemoteID:    "accelerate",
	},
	{
		Effect:      AmplifyVolume,
		Title:       "Amplify volume",
		Description: "Double the loudness of a voice message",
		Filter:      "volume=2",
		RemoteID:    "volume_boost",
	},
	{
		Effect:      Distortion,
		Title:       "Distortion",
		Description: "Crush the voice message into a gritty distortion",
		Filter:      "acrusher=level_in=4:level_out=5:bits=8:mode=log:aa=1",
		RemoteID:    "distortion",
	},
	{
		Effect:      PitchShiftUp,
		Title:       "Pitch up",
		Description: "Raise the pitch of a voice message",
		Filter:      "asetrate=48000*1.25,aresample=48000,atempo=0.8",
		RemoteID:    "pitch_up",
	},
	{
		Effect:      PitchShiftDown,
		Title:       "Pitch down",
		Description: "Lower the pitch of a voice message",
		Filter:      "asetrate=48000*0.8,aresample=48000,atempo=1.25",
		RemoteID:    "pitch_down",
	},
	{
		Effect:      Robotize,
		Title:       "Robotize",
		Description: "Make the voice message sound like a robot",
		Filter:      "afftfilt=real='hypot(re,im)*sin(0)':imag='hypot(re,im)*cos(0)':win_size=512:overlap=0.75",
		RemoteID:    "robot",
	},
}

var byName = func() map[Effect]Spec {
	m := make(map[Effect]Spec, len(catalog))
	for _, spec := range catalog {
		m[spec.Effect] = spec
	}
	return m
}()

// All returns the offerable effects in menu order.
func All() []Spec {
	out := make([]Spec, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the spec for an effect name.
func Lookup(e Effect) (Spec, bool) {
	spec, ok := byName[e]
	return spec, ok
}

// Resolve returns the spec for an effect, falling back to the volume boost
// for unknown or unsupported names. The fallback is defined here and nowhere
// else; callers must not substitute their own default.
func Resolve(e Effect) Spec {
	if spec, ok := byName[e]; ok {
		return spec
	}
	return byName[AmplifyVolume]
}

// Parse normalizes a user-supplied effect name. It returns None and false
// for anything outside the vocabulary.
func Parse(s string) (Effect, bool) {
	e := Effect(strings.ToLower(strings.TrimSpace(s)))
	if e == None {
		return None, true
	}
	if _, ok := byName[e]; ok {
		return e, true
	}
	return None, false
}
