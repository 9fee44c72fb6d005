package itr90

import "time"

// Reading is one decoded pressure sample.
type Reading struct {
	Pressure float64 // mbar
	At       time.Time
}

// Decoder accumulates fragments of the gauge byte stream across reads
// and yields Readings as complete frames become decodable. One Decoder
// serves one relay session; it is not safe for concurrent use.
type Decoder struct {
	buf []byte
	now func() time.Time
}

// NewDecoder returns a Decoder with an empty buffer.
func NewDecoder() *Decoder {
	return &Decoder{now: time.Now}
}

// Feed appends chunk to the internal buffer, decodes every complete
// frame and retains the undecodable remainder for the next call.
func (d *Decoder) Feed(chunk []byte) []Reading {
	d.buf = append(d.buf, chunk...)
	pressures, rest := Decode(d.buf)
	// Slide the remainder to the front so the buffer never grows past
	// one chunk plus a partial frame.
	d.buf = append(d.buf[:0], rest...)
	if len(pressures) == 0 {
		return nil
	}
	at := d.now()
	readings := make([]Reading, len(pressures))
	for i, p := range pressures {
		readings[i] = Reading{Pressure: p, At: at}
	}
	return readings
}
