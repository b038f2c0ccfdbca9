// Package nmea parses the subset of NMEA 0183 sentences the navigation
// plugins consume and decodes their ddmm.mmmm coordinates.
package nmea

import "strings"

const (
	TypeRMC = "RMC"
	TypeGGA = "GGA"
)

// minLineLen is the shortest line that can carry a talker id and a type.
const minLineLen = 6

var supportedTypes = map[string]bool{
	TypeRMC: true,
	TypeGGA: true,
}

// Sentence is a recognised NMEA 0183 sentence with the checksum stripped.
// Fields[0] is the talker id followed by the sentence type, e.g. "GPRMC".
type Sentence struct {
	Talker string
	Type   string
	Fields []string
}

// Field returns the i-th field or an empty string when the sentence is shorter.
func (s Sentence) Field(i int) string {
	if i < 0 || i >= len(s.Fields) {
		return ""
	}
	return s.Fields[i]
}

// Supported reports whether sentences of the given type are recognised by Parse.
func Supported(sentenceType string) bool {
	return supportedTypes[sentenceType]
}

// Parse extracts a recognised sentence from a raw line. Checksums are not
// validated. Lines that are too short, malformed or of an unsupported type
// report false; Parse never fails with an error.
func Parse(line string) (Sentence, bool) {
	line = strings.TrimSpace(line)
	if len(line) < minLineLen {
		return Sentence{}, false
	}
	if star := strings.IndexByte(line, '*'); star >= 0 {
		line = line[:star]
	}
	if line != "" && (line[0] == '$' || line[0] == '!') {
		line = line[1:]
	}
	if len(line) < 5 {
		return Sentence{}, false
	}

	sentenceType := line[2:5]
	if !Supported(sentenceType) {
		return Sentence{}, false
	}

	return Sentence{
		Talker: line[:2],
		Type:   sentenceType,
		Fields: strings.Split(line, ","),
	}, true
}
