package elements

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const lineLen = 69

// Parse reads a two- or three-line element set (optional name line followed by
// the two fixed-column data lines) and returns a validated Set.
//
// Validation covers line length and column layout, the mod-10 checksum of each
// data line ('-' counts as 1, other non-digits as 0), and per-field physical
// ranges:
//
//	inclination      [0, 180] degrees
//	eccentricity     [0, 1)
//	mean motion      (0, 20] rev/day
//	RAAN, arg perigee, mean anomaly  [0, 360] degrees
//	epoch day of year [1, 367)
//
// Parse is a pure function of its input.
func Parse(raw string) (*Set, error) {
	var lines []string
	for _, l := range strings.Split(raw, "\n") {
		l = strings.TrimRight(l, "\r\t ")
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}

	if len(lines) < 2 || len(lines) > 3 {
		return nil, &MalformedLineError{Line: 1, Reason: "expected 2 or 3 non-empty lines, got " + strconv.Itoa(len(lines))}
	}

	set := &Set{}
	if len(lines) == 3 {
		set.Name = strings.TrimSpace(lines[0])
		lines = lines[1:]
	}
	line1, line2 := lines[0], lines[1]

	if len(line1) != lineLen {
		return nil, &MalformedLineError{Line: 1, Reason: "length " + strconv.Itoa(len(line1)) + ", expected 69"}
	}
	if len(line2) != lineLen {
		return nil, &MalformedLineError{Line: 2, Reason: "length " + strconv.Itoa(len(line2)) + ", expected 69"}
	}

	if err := checksum(line1, 1); err != nil {
		return nil, err
	}
	if err := checksum(line2, 2); err != nil {
		return nil, err
	}

	if err := set.parseLine1(line1); err != nil {
		return nil, err
	}
	if err := set.parseLine2(line2); err != nil {
		return nil, err
	}

	set.Line1 = line1
	set.Line2 = line2
	return set, nil
}

// checksum verifies the mod-10 digit sum of a data line against its final column.
func checksum(line string, lineNo int) error {
	want, err := strconv.Atoi(line[68:69])
	if err != nil {
		return &MalformedLineError{Line: lineNo, Reason: "checksum column is not a digit"}
	}
	sum := 0
	for i := 0; i < 68; i++ {
		switch c := line[i]; {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	if got := sum % 10; got != want {
		return &ChecksumError{Line: lineNo, Want: want, Got: got}
	}
	return nil
}

func (s *Set) parseLine1(line string) error {
	if line[0] != '1' {
		return &MalformedLineError{Line: 1, Reason: "must begin with '1'"}
	}

	num, err := strconv.Atoi(strings.TrimSpace(line[2:7]))
	if err != nil {
		return &MalformedLineError{Line: 1, Reason: "invalid satellite number"}
	}
	s.SatelliteNumber = num
	s.Classification = rune(line[7])
	s.International = strings.TrimSpace(line[9:17])

	year, err := strconv.Atoi(strings.TrimSpace(line[18:20]))
	if err != nil {
		return &MalformedLineError{Line: 1, Reason: "invalid epoch year"}
	}
	// Two-digit years: 57-99 are 1900s, 00-56 are 2000s.
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	day, err := strconv.ParseFloat(strings.TrimSpace(line[20:32]), 64)
	if err != nil {
		return &MalformedLineError{Line: 1, Reason: "invalid epoch day"}
	}
	if day < 1 || day >= 367 {
		return &FieldRangeError{Field: "epoch_day", Value: day, Range: "[1, 367)"}
	}
	s.Epoch = epochTime(year, day)

	s.MeanMotionDot, err = parseImpliedLeadingZero(line[33:43])
	if err != nil {
		return &MalformedLineError{Line: 1, Reason: "invalid mean motion derivative"}
	}

	s.MeanMotionDot2, err = parseAssumedDecimal(line[44:52])
	if err != nil {
		return &MalformedLineError{Line: 1, Reason: "invalid second mean motion derivative"}
	}

	s.Bstar, err = parseAssumedDecimal(line[53:61])
	if err != nil {
		return &MalformedLineError{Line: 1, Reason: "invalid drag term"}
	}
	if math.Abs(s.Bstar) >= 1 {
		return &FieldRangeError{Field: "bstar", Value: s.Bstar, Range: "(-1, 1)"}
	}

	s.ElementNumber, err = strconv.Atoi(strings.TrimSpace(line[64:68]))
	if err != nil {
		return &MalformedLineError{Line: 1, Reason: "invalid element set number"}
	}
	return nil
}

func (s *Set) parseLine2(line string) error {
	if line[0] != '2' {
		return &MalformedLineError{Line: 2, Reason: "must begin with '2'"}
	}

	num, err := strconv.Atoi(strings.TrimSpace(line[2:7]))
	if err != nil {
		return &MalformedLineError{Line: 2, Reason: "invalid satellite number"}
	}
	if num != s.SatelliteNumber {
		return &MalformedLineError{Line: 2, Reason: "satellite number does not match line 1"}
	}

	s.Inclination, err = strconv.ParseFloat(strings.TrimSpace(line[8:16]), 64)
	if err != nil {
		return &MalformedLineError{Line: 2, Reason: "invalid inclination"}
	}
	if s.Inclination < 0 || s.Inclination > 180 {
		return &FieldRangeError{Field: "inclination", Value: s.Inclination, Range: "[0, 180]"}
	}

	s.RightAscension, err = strconv.ParseFloat(strings.TrimSpace(line[17:25]), 64)
	if err != nil {
		return &MalformedLineError{Line: 2, Reason: "invalid right ascension"}
	}
	if s.RightAscension < 0 || s.RightAscension > 360 {
		return &FieldRangeError{Field: "raan", Value: s.RightAscension, Range: "[0, 360]"}
	}

	// Eccentricity has an assumed leading "0." in columns 27-33.
	s.Eccentricity, err = strconv.ParseFloat("0."+strings.TrimSpace(line[26:33]), 64)
	if err != nil {
		return &MalformedLineError{Line: 2, Reason: "invalid eccentricity"}
	}
	if s.Eccentricity < 0 || s.Eccentricity >= 1 {
		return &FieldRangeError{Field: "eccentricity", Value: s.Eccentricity, Range: "[0, 1)"}
	}

	s.ArgOfPerigee, err = strconv.ParseFloat(strings.TrimSpace(line[34:42]), 64)
	if err != nil {
		return &MalformedLineError{Line: 2, Reason: "invalid argument of perigee"}
	}
	if s.ArgOfPerigee < 0 || s.ArgOfPerigee > 360 {
		return &FieldRangeError{Field: "arg_perigee", Value: s.ArgOfPerigee, Range: "[0, 360]"}
	}

	s.MeanAnomaly, err = strconv.ParseFloat(strings.TrimSpace(line[43:51]), 64)
	if err != nil {
		return &MalformedLineError{Line: 2, Reason: "invalid mean anomaly"}
	}
	if s.MeanAnomaly < 0 || s.MeanAnomaly > 360 {
		return &FieldRangeError{Field: "mean_anomaly", Value: s.MeanAnomaly, Range: "[0, 360]"}
	}

	s.MeanMotion, err = strconv.ParseFloat(strings.TrimSpace(line[52:63]), 64)
	if err != nil {
		return &MalformedLineError{Line: 2, Reason: "invalid mean motion"}
	}
	if s.MeanMotion <= 0 || s.MeanMotion > 20 {
		return &FieldRangeError{Field: "mean_motion", Value: s.MeanMotion, Range: "(0, 20]"}
	}

	s.RevolutionNumber, err = strconv.Atoi(strings.TrimSpace(line[63:68]))
	if err != nil {
		return &MalformedLineError{Line: 2, Reason: "invalid revolution number"}
	}
	return nil
}

// parseImpliedLeadingZero handles fields like " .00016717" or "-.00002182"
// where the zero before the decimal point is omitted.
func parseImpliedLeadingZero(field string) (float64, error) {
	f := strings.TrimSpace(field)
	if strings.HasPrefix(f, ".") {
		f = "0" + f
	} else if strings.HasPrefix(f, "-.") {
		f = "-0" + f[1:]
	} else if strings.HasPrefix(f, "+.") {
		f = "0" + f[1:]
	}
	return strconv.ParseFloat(f, 64)
}

// parseAssumedDecimal handles the " SXXXXX±E" exponent notation used for the
// drag term and the second mean-motion derivative, e.g. " 30099-3" = 0.30099e-3.
func parseAssumedDecimal(field string) (float64, error) {
	mantissa, err := strconv.ParseFloat(strings.TrimSpace(field[:6]), 64)
	if err != nil {
		return 0, err
	}
	exp, err := strconv.ParseInt(strings.TrimSpace(field[6:]), 10, 64)
	if err != nil {
		return 0, err
	}
	return mantissa * 1e-5 * math.Pow(10, float64(exp)), nil
}

// epochTime converts a TLE epoch (four-digit year, 1-based fractional day of
// year) to a UTC instant, rounding to the nearest nanosecond.
func epochTime(year int, dayOfYear float64) time.Time {
	days := int(dayOfYear)
	frac := dayOfYear - float64(days)
	base := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days-1)
	return base.Add(time.Duration(math.Round(frac * 86400.0 * 1e9)))
}
