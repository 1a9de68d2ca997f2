package corpus

import (
	"strconv"
	"strings"
)

// DefaultSource names a citation whose chunk carries no subject.
const DefaultSource = "NCERT Textbook"

// Provenance is what a chunk id of the form grade__subject__pPAGE__cN encodes.
type Provenance struct {
	Grade   string
	Subject string
	Page    int
	Counter int
}

// ParseID splits a conventional chunk id. ok is false when the id does not
// follow the convention; fields that fail to parse stay zero.
func ParseID(id string) (Provenance, bool) {
	parts := strings.Split(id, "__")
	if len(parts) < 2 {
		return Provenance{}, false
	}
	p := Provenance{Grade: parts[0], Subject: parts[1]}
	for _, part := range parts[2:] {
		switch {
		case strings.HasPrefix(part, "p"):
			if n, err := strconv.Atoi(part[1:]); err == nil {
				p.Page = n
			}
		case strings.HasPrefix(part, "c"):
			if n, err := strconv.Atoi(part[1:]); err == nil {
				p.Counter = n
			}
		}
	}
	return p, true
}

// GradeNumber extracts the first integer in a grade label such as "class 5".
func GradeNumber(label string) (int, bool) {
	start := strings.IndexAny(label, "0123456789")
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(label) && label[end] >= '0' && label[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(label[start:end])
	return n, err == nil
}
