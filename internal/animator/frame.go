package animator

// DefaultFrameCount is the number of frames in every icon set.
const DefaultFrameCount = 5

// Frame is a position in the animation cycle. Frame 0 is the idle frame.
type Frame uint

// Next returns the frame after f in a cycle of n frames.
func (f Frame) Next(n int) Frame {
	if n <= 1 {
		return 0
	}

	next := f + 1
	if next >= Frame(n) {
		return 0
	}

	return next
}

// Int returns the frame as an icon index.
func (f Frame) Int() int {
	return int(f)
}
