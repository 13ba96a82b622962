// Package clock derives timecodes from 32-bit media clock timestamps.
package clock

import (
	"errors"
	"fmt"
	"math/bits"
	"sync"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"

	"github.com/zsiec/timecode/internal/logger"
	"github.com/zsiec/timecode/internal/metrics"
	"github.com/zsiec/timecode/pkg/timecode"
)

// DefaultClockRate is the RTP video clock.
const DefaultClockRate = 90000

// ntpEpochOffset is the number of seconds between 1900-01-01 and 1970-01-01.
const ntpEpochOffset = 2208988800

var (
	// ErrInvalidClock is returned for a frame rate above the clock rate.
	ErrInvalidClock = errors.New("frame rate exceeds clock rate")

	// ErrNoSenderReport is returned when an RTCP compound packet carries no
	// sender report.
	ErrNoSenderReport = errors.New("no sender report in packet")
)

// Mapper converts media timestamps to timecodes. The first timestamp seen
// is frame zero unless a sender report anchors the stream to time of day.
type Mapper struct {
	clockRate uint32
	fps       float64
	drop      bool
	rate      Rational

	started bool
	base    uint32 // first timestamp seen
	last    uint32 // highest timestamp seen, for wrap detection
	wraps   int64
	offset  int64 // ticks added after unwrapping

	log logger.Logger
	mu  sync.Mutex
}

// NewMapper creates a mapper producing timecodes at fps. A zero clockRate
// means DefaultClockRate.
func NewMapper(clockRate uint32, fps float64, dropFrame bool) (*Mapper, error) {
	if clockRate == 0 {
		clockRate = DefaultClockRate
	}
	if _, err := timecode.New(0, fps, dropFrame); err != nil {
		return nil, err
	}
	if fps > float64(clockRate) {
		return nil, fmt.Errorf("%w: %g fps at %d Hz", ErrInvalidClock, fps, clockRate)
	}
	return &Mapper{
		clockRate: clockRate,
		fps:       fps,
		drop:      dropFrame,
		rate:      FrameRateOf(fps),
		log:       logger.NewNullLogger(),
	}, nil
}

// SetLogger replaces the mapper's logger, which discards by default.
func (m *Mapper) SetLogger(l logger.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = l
}

// ClockRate returns the media clock rate in Hz.
func (m *Mapper) ClockRate() uint32 {
	return m.clockRate
}

// Wraps returns the number of 2^32 wraps observed.
func (m *Mapper) Wraps() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wraps
}

// Ticks returns the unwrapped clock ticks of ts since the stream origin.
func (m *Mapper) Ticks(ts uint32) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unwrap(ts) + m.offset
}

// unwrap must be called with mu held.
func (m *Mapper) unwrap(ts uint32) int64 {
	if !m.started {
		m.started = true
		m.base = ts
		m.last = ts
		return 0
	}

	wraps := m.wraps
	switch {
	case ts < m.last && m.last-ts > 1<<31:
		// Forward across the wrap.
		m.wraps++
		wraps = m.wraps
		m.last = ts
		metrics.RecordClockWrap()
		m.log.WithField("wraps", m.wraps).Debug("Media clock wrapped")
	case ts > m.last && ts-m.last > 1<<31:
		// Late packet from before the last wrap.
		wraps--
	case ts > m.last:
		m.last = ts
	}

	return wraps<<32 + int64(ts) - int64(m.base)
}

// Timecode returns the timecode of media timestamp ts. Timestamps before
// the origin fail with timecode.ErrNegativeTimecode.
func (m *Mapper) Timecode(ts uint32) (timecode.Timecode, error) {
	return timecode.New(m.frames(m.Ticks(ts)), m.fps, m.drop)
}

// frames converts ticks to whole frames, rounding toward negative infinity.
func (m *Mapper) frames(ticks int64) int64 {
	neg := ticks < 0
	if neg {
		ticks = -ticks
	}
	hi, lo := bits.Mul64(uint64(ticks), uint64(m.rate.Num))
	div := uint64(m.rate.Den) * uint64(m.clockRate)
	q, r := bits.Div64(hi, lo, div)
	if neg {
		if r != 0 {
			q++
		}
		return -int64(q)
	}
	return int64(q)
}

// FromPacket parses an RTP packet and returns the timecode of its media
// timestamp.
func (m *Mapper) FromPacket(raw []byte) (timecode.Timecode, error) {
	ts, err := PacketTimestamp(raw)
	if err != nil {
		return timecode.Timecode{}, err
	}
	return m.Timecode(ts)
}

// PacketTimestamp returns the media timestamp of an RTP packet.
func PacketTimestamp(raw []byte) (uint32, error) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(raw); err != nil {
		return 0, fmt.Errorf("failed to parse rtp packet: %w", err)
	}
	return pkt.Timestamp, nil
}

// Anchor aligns the media clock with the wall clock time carried by a
// sender report, so that timecodes read as time of day in UTC.
//
// Frames are counted at the exact rate (30000/1001 for 29.97) but displayed
// at the rounded integer rate without drop-frame counting, so at 23.976,
// 29.97 and 59.94 the timecode trails the wall clock by 0.1%: about 86
// seconds per day since midnight.
func (m *Mapper) Anchor(sr *rtcp.SenderReport) {
	tod := m.timeOfDayTicks(sr.NTPTime)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.offset = tod - m.unwrap(sr.RTPTime)
	m.log.WithFields(map[string]interface{}{
		"ssrc":     sr.SSRC,
		"rtp_time": sr.RTPTime,
		"offset":   m.offset,
	}).Debug("Media clock anchored to sender report")
}

func (m *Mapper) timeOfDayTicks(ntp uint64) int64 {
	secs := int64(ntp>>32) - ntpEpochOffset
	secs = ((secs % 86400) + 86400) % 86400
	frac := ((ntp&0xffffffff)*uint64(m.clockRate) + 1<<31) >> 32
	return secs*int64(m.clockRate) + int64(frac)
}

// Reset forgets the origin, wraps and anchor.
func (m *Mapper) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = false
	m.base, m.last = 0, 0
	m.wraps = 0
	m.offset = 0
}

// ParseSenderReport returns the first sender report in an RTCP compound
// packet.
func ParseSenderReport(raw []byte) (*rtcp.SenderReport, error) {
	pkts, err := rtcp.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rtcp packet: %w", err)
	}
	for _, p := range pkts {
		if sr, ok := p.(*rtcp.SenderReport); ok {
			return sr, nil
		}
	}
	return nil, ErrNoSenderReport
}

// NTPTime converts t to the 64-bit NTP format used in sender reports.
func NTPTime(t time.Time) uint64 {
	secs := uint64(t.Unix() + ntpEpochOffset)
	frac := uint64(t.Nanosecond()) << 32 / uint64(time.Second)
	return secs<<32 | frac
}
