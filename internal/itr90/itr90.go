// Package itr90 implements the binary telemetry codec for the ITR 90
// vacuum gauge. The gauge streams fixed 9-byte frames at roughly 50 Hz;
// the decoder tolerates arbitrary fragmentation and line noise.
package itr90

import "math"

const (
	// FrameLength is the size of one telemetry frame in bytes.
	FrameLength = 9

	// markerLength and markerPage form the two-byte frame marker.
	markerLength = 7
	markerPage   = 5
)

// Pressure converts the raw 16-bit pressure field (bytes 4 and 5 of a
// frame) to millibar: p = 10^((high*256+low)/4000 - 12.5).
func Pressure(high, low byte) float64 {
	raw := float64(int(high)<<8 + int(low))
	return math.Pow(10, raw/4000-12.5)
}

// RawFromPressure inverts Pressure, clamping to the 16-bit raw range.
// Used by the emulator and tests to synthesize frames.
func RawFromPressure(mbar float64) uint16 {
	raw := (math.Log10(mbar) + 12.5) * 4000
	if raw < 0 {
		return 0
	}
	if raw > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(math.Round(raw))
}

// EncodeFrame builds a well-formed 9-byte frame carrying the given raw
// pressure value. Status, error, version and sensor-type bytes are zero.
func EncodeFrame(raw uint16) []byte {
	frame := []byte{markerLength, markerPage, 0, 0, byte(raw >> 8), byte(raw), 0, 0, 0}
	frame[8] = checksum(frame)
	return frame
}

// checksum is the low byte of the sum of bytes 1 through 7.
func checksum(frame []byte) byte {
	var sum int
	for _, b := range frame[1 : FrameLength-1] {
		sum += int(b)
	}
	return byte(sum)
}

// Decode scans buf for complete, checksum-valid frames and returns the
// decoded pressures in order plus the bytes that cannot yet form a
// frame. The remainder is at most 8 bytes of partial frame, or a single
// trailing byte when no marker was seen (it may be the first half of a
// marker split across reads). Frames with a bad checksum are dropped
// silently; the scan then advances past the marker only, so a genuine
// frame overlapping a spurious marker is still recovered and the loop
// always makes progress.
func Decode(buf []byte) (pressures []float64, rest []byte) {
	for {
		idx := -1
		for i := 0; i+1 < len(buf); i++ {
			if buf[i] == markerLength && buf[i+1] == markerPage {
				idx = i
				break
			}
		}
		if idx < 0 {
			if len(buf) > 1 {
				buf = buf[len(buf)-1:]
			}
			return pressures, buf
		}
		buf = buf[idx:]
		if len(buf) < FrameLength {
			return pressures, buf
		}
		frame := buf[:FrameLength]
		if checksum(frame) != frame[FrameLength-1] {
			buf = buf[2:]
			continue
		}
		buf = buf[FrameLength:]
		pressures = append(pressures, Pressure(frame[4], frame[5]))
	}
}
