package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/zsiec/timecode/internal/errors"
	"github.com/zsiec/timecode/pkg/timecode"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Defaults fill in the rate and drop-frame flag of request timecodes that
// carry none.
type Defaults struct {
	Rate      float64
	DropFrame bool
	ClockRate uint32
}

// rateOptions are the request-level overrides shared by most bodies.
type rateOptions struct {
	Rate      *float64 `json:"rate,omitempty"`
	DropFrame *bool    `json:"drop_frame,omitempty"`
}

func (o rateOptions) resolve(d Defaults) (float64, bool) {
	fps, drop := d.Rate, d.DropFrame
	if o.Rate != nil {
		fps = *o.Rate
		// An explicit rate without a drop flag is non-drop.
		drop = false
	}
	if o.DropFrame != nil {
		drop = *o.DropFrame
	}
	return fps, drop
}

// timecodeInput is a request timecode: either a bare string or an object
// with a frame count or display string and optional rate fields.
type timecodeInput struct {
	raw json.RawMessage
}

func (in *timecodeInput) UnmarshalJSON(b []byte) error {
	in.raw = append(in.raw[:0], b...)
	return nil
}

func (in timecodeInput) empty() bool {
	return len(in.raw) == 0 || bytes.Equal(in.raw, []byte("null"))
}

type timecodeObject struct {
	Timecode string `json:"timecode"`
	Frame    *int64 `json:"frame"`
	rateOptions
}

// build resolves the input using fps and drop unless it carries its own.
func (in timecodeInput) build(fps float64, drop bool) (timecode.Timecode, error) {
	if in.empty() {
		return timecode.Timecode{}, fmt.Errorf("%w: missing timecode", timecode.ErrMalformedTimecode)
	}

	var text string
	if err := json.Unmarshal(in.raw, &text); err == nil {
		return timecode.Parse(text, fps, drop)
	}

	var obj timecodeObject
	if err := json.Unmarshal(in.raw, &obj); err != nil {
		return timecode.Timecode{}, fmt.Errorf("%w: %v", timecode.ErrMalformedTimecode, err)
	}
	fps, drop = obj.rateOptions.resolve(Defaults{Rate: fps, DropFrame: drop})

	switch {
	case obj.Frame != nil:
		return timecode.New(*obj.Frame, fps, drop)
	case obj.Timecode != "":
		return timecode.Parse(obj.Timecode, fps, drop)
	}
	return timecode.Timecode{}, fmt.Errorf("%w: object has neither frame nor timecode", timecode.ErrMalformedTimecode)
}

// decode reads a JSON body into v.
func decode(r *http.Request, v interface{}) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.NewValidationError(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}
