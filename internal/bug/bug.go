package bug

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Bug is a single finding reported by a bug pattern.
type Bug struct {
	ID               string   `json:"id" yaml:"id" msgpack:"id"`
	PkgPath          string   `json:"pkg_path" yaml:"pkg_path" msgpack:"pkg_path"`
	PkgName          string   `json:"pkg_name" yaml:"pkg_name" msgpack:"pkg_name"`
	File             string   `json:"file" yaml:"file" msgpack:"file"` // relative to the module root
	Line             int      `json:"line" yaml:"line" msgpack:"line"`
	Column           int      `json:"column" yaml:"column" msgpack:"column"`
	Category         Category `json:"category" yaml:"category" msgpack:"category"`
	Type             string   `json:"type" yaml:"type" msgpack:"type"` // bug pattern name
	ShortDescription string   `json:"short_description" yaml:"short_description" msgpack:"short_description"`
	Message          string   `json:"message" yaml:"message" msgpack:"message"`
	Priority         Priority `json:"priority" yaml:"priority" msgpack:"priority"`
}

// Position formats the finding location as file:line:column.
func (b Bug) Position() string {
	return fmt.Sprintf("%s:%d:%d", b.File, b.Line, b.Column)
}

// ComputeID returns a stable identifier derived from the finding content.
func ComputeID(b Bug) string {
	h := sha256.New()
	for _, part := range []string{b.Type, b.File, strconv.Itoa(b.Line), strconv.Itoa(b.Column), b.Message} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil)[:8])
}

// Category is a coarse classification of bug patterns.
type Category string

const (
	Correctness   Category = "CORRECTNESS"
	BadPractice   Category = "BAD_PRACTICE"
	Style         Category = "STYLE"
	Performance   Category = "PERFORMANCE"
	MTCorrectness Category = "MT_CORRECTNESS"
	Security      Category = "SECURITY"
)

var categoryLabels = map[Category]string{
	MTCorrectness: "Multithreaded correctness",
}

// title upper-cases the first letter of s. Casers are stateful, so each call
// gets its own.
func title(s string) string {
	return cases.Title(language.English).String(s)
}

// Label returns a human readable category name, e.g. "Bad practice".
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	words := strings.Fields(strings.ReplaceAll(string(c), "_", " "))
	if len(words) == 0 {
		return "Uncategorized"
	}
	words[0] = title(words[0])
	for i := 1; i < len(words); i++ {
		words[i] = strings.ToLower(words[i])
	}
	return strings.Join(words, " ")
}

// Priority ranks findings. Lower values are more severe.
type Priority int

const (
	High   Priority = 1
	Normal Priority = 2
	Low    Priority = 3
)

func (p Priority) String() string {
	switch p {
	case High:
		return "high"
	case Normal:
		return "normal"
	case Low:
		return "low"
	default:
		return "priority(" + strconv.Itoa(int(p)) + ")"
	}
}

// Label returns the display name of the priority.
func (p Priority) Label() string {
	return title(p.String()) + " priority"
}

// ParsePriority parses high, normal or low (case insensitive).
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return High, nil
	case "normal", "medium":
		return Normal, nil
	case "low":
		return Low, nil
	default:
		return 0, fmt.Errorf("unknown priority: %s (valid: high, normal, low)", s)
	}
}
