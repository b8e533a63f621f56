// Package common holds enumerations shared between configuration and
// conversion code. Values are generated with go-enum, see enums_enum.go.
package common

//go:generate go tool go-enum --marshal --names

// Specification of requested output document.
// ENUM(outline, page)
type OutputFmt int

func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtOutline:
		return ".outline.xml"
	case OutputFmtPage:
		return ".xml"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}

// Rendering of thematic breaks.
// ENUM(chars, image)
type RuleStyle int

// Alignment of standalone image lines.
// ENUM(left, center, right)
type ImageAlign int
