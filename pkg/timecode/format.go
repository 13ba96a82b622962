package timecode

import (
	"encoding/json"
	"fmt"
)

// String returns the timecode as HH:MM:SS:FF, or HH:MM:SS;FF for drop-frame.
// Fields are zero padded to two digits and grow if they need more.
func (t Timecode) String() string {
	h, m, s, f := t.components()
	sep := ':'
	if t.drop {
		sep = ';'
	}
	return fmt.Sprintf("%02d:%02d:%02d%c%02d", h, m, s, sep, f)
}

// Format returns the canonical string form. It is the same as String.
func (t Timecode) Format() string { return t.String() }

type jsonTimecode struct {
	Timecode  string   `json:"timecode,omitempty"`
	Frame     *int64   `json:"frame,omitempty"`
	Rate      *float64 `json:"rate,omitempty"`
	DropFrame bool     `json:"drop_frame"`
}

// MarshalJSON encodes the timecode as an object carrying both the display
// string and the frame count it was built from.
func (t Timecode) MarshalJSON() ([]byte, error) {
	frame, rate := t.frame, float64(t.rate)
	return json.Marshal(jsonTimecode{
		Timecode:  t.String(),
		Frame:     &frame,
		Rate:      &rate,
		DropFrame: t.drop,
	})
}

// UnmarshalJSON decodes an object written by MarshalJSON or a bare string.
// A frame count takes precedence over the display string. Missing rates
// default to DefaultRate.
func (t *Timecode) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		v, err := Parse(text, DefaultRate, false)
		if err != nil {
			return err
		}
		*t = v
		return nil
	}

	var raw jsonTimecode
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedTimecode, err)
	}
	fps := DefaultRate
	if raw.Rate != nil {
		fps = *raw.Rate
	}

	var (
		v   Timecode
		err error
	)
	switch {
	case raw.Frame != nil:
		v, err = New(*raw.Frame, fps, raw.DropFrame)
	case raw.Timecode != "":
		v, err = Parse(raw.Timecode, fps, raw.DropFrame)
	default:
		err = fmt.Errorf("%w: object has neither frame nor timecode", ErrMalformedTimecode)
	}
	if err != nil {
		return err
	}
	*t = v
	return nil
}
