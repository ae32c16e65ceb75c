// Package compound holds the domain model of the explorer: queries, the
// synonym and sample tables, suggestions, identifiers, properties and the
// structural record. Everything here is pure and safe for concurrent reads.
package compound

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ─────────────────────────────────────────────────────────────────────────────
// Query
// ─────────────────────────────────────────────────────────────────────────────

// NormalizeQuery trims and lowercases raw input. Input is NFC-composed first
// so that "é" typed as e + combining accent compares equal to the precomposed
// form stored in the tables.
func NormalizeQuery(raw string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(raw)))
}

// QueryLength is the length of a normalized query in characters.
func QueryLength(normalized string) int {
	return utf8.RuneCountInString(normalized)
}

// ─────────────────────────────────────────────────────────────────────────────
// Identifier
// ─────────────────────────────────────────────────────────────────────────────

var identifierPattern = regexp.MustCompile(`^\d+$`)

// CID is a PubChem compound identifier.
type CID int64

func (c CID) String() string { return strconv.FormatInt(int64(c), 10) }

// IsIdentifier reports whether s is all ASCII digits.
func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// ParseCID converts a digit string into a CID.
func ParseCID(s string) (CID, error) {
	if !IsIdentifier(s) {
		return 0, fmt.Errorf("compound: %q is not a numeric identifier", s)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("compound: identifier %q out of range: %w", s, err)
	}
	return CID(v), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Properties and structure
// ─────────────────────────────────────────────────────────────────────────────

// Properties are the descriptive fields fetched once per resolution.
// MolecularWeight is zero when the database did not report one.
type Properties struct {
	IUPACName        string  `json:"iupac_name"`
	MolecularFormula string  `json:"molecular_formula"`
	MolecularWeight  float64 `json:"molecular_weight"`
}

// Dimension selects the coordinate variant of a structural record.
type Dimension int

const (
	Dim2D Dimension = 2
	Dim3D Dimension = 3
)

func (d Dimension) String() string {
	if d == Dim3D {
		return "3d"
	}
	return "2d"
}

// ParseDimension accepts "2d"/"3d" (case-insensitive). Anything else is 3D.
func ParseDimension(s string) Dimension {
	if strings.EqualFold(strings.TrimSpace(s), "2d") {
		return Dim2D
	}
	return Dim3D
}

// MinStructureLength is the shortest text accepted as a 3D record.
const MinStructureLength = 50

// StructuralRecord is the raw SDF text of a compound. The text is kept
// byte-identical to what the database returned.
type StructuralRecord struct {
	Text string    `json:"text"`
	Dim  Dimension `json:"dim"`
}

// Is3D reports whether the record carries 3D coordinates.
func (r StructuralRecord) Is3D() bool { return r.Dim == Dim3D }

// Empty reports whether no structure text is held.
func (r StructuralRecord) Empty() bool { return r.Text == "" }

// Usable3D reports whether text passes the acceptance rule for 3D records:
// at least MinStructureLength characters once surrounding whitespace is
// trimmed, which also rejects blank text.
func Usable3D(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= MinStructureLength
}

// ─────────────────────────────────────────────────────────────────────────────
// Formatting for the metadata display
// ─────────────────────────────────────────────────────────────────────────────

// Placeholder is shown for fields the database did not report.
const Placeholder = "—"

// FormatMass renders a molecular weight as "180.156 g/mol".
func FormatMass(w float64) string {
	if w <= 0 {
		return Placeholder
	}
	return fmt.Sprintf("%.3f g/mol", w)
}

// FormatFormula returns f or the placeholder.
func FormatFormula(f string) string {
	if strings.TrimSpace(f) == "" {
		return Placeholder
	}
	return f
}
