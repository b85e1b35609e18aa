package codec

import "github.com/tracering/tracering/model"

// FindLastOfTypes walks backwards from the frame boundary at back and
// returns the offset of the nearest frame whose type is in types.
// back must be a known end-of-frame boundary; front bounds the scan.
//
// Each step recomputes the previous frame start from the trailing
// length byte and verifies that the candidate abuts back with matching
// leading length. Any violation means a stray or partial byte, and the
// scan reports not found rather than trusting a corrupt chain.
func FindLastOfTypes(buf []byte, front, back int, types map[model.Event]bool) (int, bool) {
	for back+model.PrevLengthOffset >= front {
		prev := back - int(buf[back+model.PrevLengthOffset]) - model.Overhead
		if prev < front || prev+int(buf[prev+1])+model.Overhead != back {
			// prev points to an out of limits or inconsistent frame
			return 0, false
		}
		if types[model.Event(buf[prev])] {
			return prev, true
		}
		back = prev
	}
	return 0, false
}
