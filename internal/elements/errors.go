package elements

import "fmt"

// MalformedLineError reports a line with a wrong length or column layout.
type MalformedLineError struct {
	Line   int // 1 or 2
	Reason string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("malformed element line %d: %s", e.Line, e.Reason)
}

// ChecksumError reports a mod-10 checksum mismatch on a data line.
type ChecksumError struct {
	Line int
	Want int // checksum digit printed on the line
	Got  int // checksum computed from the line body
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch on line %d: line says %d, computed %d", e.Line, e.Want, e.Got)
}

// FieldRangeError reports a numeric field outside its physically valid range.
type FieldRangeError struct {
	Field string
	Value float64
	Range string
}

func (e *FieldRangeError) Error() string {
	return fmt.Sprintf("field %s = %g outside valid range %s", e.Field, e.Value, e.Range)
}
