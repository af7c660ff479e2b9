package fbsql

import (
	"encoding/binary"
	"time"

	"github.com/golang-sql/civil"
)

// Dates travel as days since the Modified Julian Day epoch and times as
// 1/10000 second units since midnight.
var mjdEpoch = civil.Date{Year: 1858, Month: time.November, Day: 17}

const (
	timeUnitsPerSecond = 10000
	nanosPerTimeUnit   = int64(time.Second) / timeUnitsPerSecond
)

// timeOfDayAnchor is the date a TIME value is placed on when decoded.
var timeOfDayAnchor = civil.Date{Year: 2000, Month: time.January, Day: 1}

func encodeDate(d civil.Date) int32 {
	return int32(d.DaysSince(mjdEpoch))
}

func decodeDate(days int32) civil.Date {
	return mjdEpoch.AddDays(int(days))
}

func encodeTime(t civil.Time) uint32 {
	secs := (t.Hour*60+t.Minute)*60 + t.Second
	return uint32(secs)*timeUnitsPerSecond + uint32(int64(t.Nanosecond)/nanosPerTimeUnit)
}

func decodeTime(units uint32) civil.Time {
	secs := int(units / timeUnitsPerSecond)
	frac := int64(units % timeUnitsPerSecond)
	return civil.Time{
		Hour:       secs / 3600,
		Minute:     secs / 60 % 60,
		Second:     secs % 60,
		Nanosecond: int(frac * nanosPerTimeUnit),
	}
}

func putTimestamp(b []byte, dt civil.DateTime) {
	binary.LittleEndian.PutUint32(b, uint32(encodeDate(dt.Date)))
	binary.LittleEndian.PutUint32(b[4:], encodeTime(dt.Time))
}

func getTimestamp(b []byte) civil.DateTime {
	return civil.DateTime{
		Date: decodeDate(int32(binary.LittleEndian.Uint32(b))),
		Time: decodeTime(binary.LittleEndian.Uint32(b[4:])),
	}
}

func civilToTime(d civil.Date, t civil.Time, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, t.Second, t.Nanosecond, loc)
}
