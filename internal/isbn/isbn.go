// Package isbn recognizes Bookland EAN-13 barcodes in scanner output and
// normalizes ISBNs supplied on the command line.
package isbn

import (
	"iter"
	"strings"
)

// LinePrefix marks a decoded EAN-13 symbol in scanner output.
const LinePrefix = "EAN-13:"

// Length is the number of digits in an ISBN-13.
const Length = 13

// MatchLine reports the ISBN carried by a scanner output line. A line matches
// when it starts with "EAN-13:" followed by exactly 13 digits beginning with 9
// and nothing else apart from trailing whitespace.
func MatchLine(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, LinePrefix)
	if !ok {
		return "", false
	}
	rest = strings.TrimRight(rest, " \t\r\n")
	if len(rest) != Length || rest[0] != '9' || !allDigits(rest) {
		return "", false
	}
	return rest, true
}

// Extract pulls lines one at a time until one matches, echoing every
// non-matching line. It stops consuming on the first match, so an unbounded
// live stream is never buffered. The second result is false when the stream
// ends without a match.
func Extract(lines iter.Seq[string], echo func(string)) (string, bool) {
	for line := range lines {
		if code, ok := MatchLine(line); ok {
			return code, true
		}
		if echo != nil {
			echo(line)
		}
	}
	return "", false
}

// Normalize strips surrounding whitespace and the hyphens and spaces commonly
// printed inside ISBNs. It does not validate the result.
func Normalize(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
}

// Valid reports whether value is 13 digits with a correct ISBN-13 check digit.
func Valid(value string) bool {
	if len(value) != Length || !allDigits(value) {
		return false
	}
	sum := 0
	for i := 0; i < Length-1; i++ {
		digit := int(value[i] - '0')
		if i%2 == 1 {
			digit *= 3
		}
		sum += digit
	}
	check := (10 - sum%10) % 10
	return int(value[Length-1]-'0') == check
}

// IsBookland reports whether value carries the 978/979 book prefix.
func IsBookland(value string) bool {
	return strings.HasPrefix(value, "978") || strings.HasPrefix(value, "979")
}

func allDigits(value string) bool {
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}
