package timecode

// offsetFunc returns the number of frame labels skipped before frameNumber
// when a timecode at rate is displayed as drop-frame. Components are derived
// from frameNumber plus the offset.
type offsetFunc func(frameNumber int64, rate int) int64

// noOffset leaves drop-frame display identical to non-drop display.
func noOffset(int64, int) int64 { return 0 }

// dropFrameOffset is consulted for every drop-frame component lookup.
// SMPTE drop-frame counting (skipping labels 0 and 1 at the start of every
// minute not divisible by ten) plugs in here.
var dropFrameOffset offsetFunc = noOffset
