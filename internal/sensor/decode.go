package sensor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"backend-fittrack/internal/motion"
)

var ErrMalformedLine = errors.New("malformed sensor line")

// ParseLine decodes one "x,y,z,timestampMs" record. An axis written as
// "null" or left empty is reported as missing, which the detector ignores.
// Blank lines and lines starting with '#' return ok=false and no error.
func ParseLine(line string) (sample motion.Sample, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return motion.Sample{}, false, nil
	}

	fields := strings.Split(line, ",")
	if len(fields) != 4 {
		return motion.Sample{}, false, fmt.Errorf("%w: want 4 fields, got %d", ErrMalformedLine, len(fields))
	}

	axes := make([]*float64, 3)
	for i := 0; i < 3; i++ {
		axes[i], err = parseAxis(fields[i])
		if err != nil {
			return motion.Sample{}, false, err
		}
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(fields[3]), 10, 64)
	if err != nil {
		return motion.Sample{}, false, fmt.Errorf("%w: timestamp %q", ErrMalformedLine, fields[3])
	}

	return motion.Sample{X: axes[0], Y: axes[1], Z: axes[2], TimestampMs: ts}, true, nil
}

func parseAxis(field string) (*float64, error) {
	field = strings.TrimSpace(field)
	if field == "" || strings.EqualFold(field, "null") {
		return nil, nil
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: axis %q", ErrMalformedLine, field)
	}
	return &v, nil
}
