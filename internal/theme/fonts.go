package theme

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// Default font queries, in "family size weight slope" form.
const (
	DefaultFontQuery     = "Katica 10 400 0"
	FixedWidthFontQuery  = "Csilla 10 400 0"
	WindowTitleFontQuery = "Katica 10 700 0"
)

// FontQueries are the three system font selections pushed to a renderer.
type FontQueries struct {
	Default     string `json:"default"`
	FixedWidth  string `json:"fixed_width"`
	WindowTitle string `json:"window_title"`
}

// DefaultFontQueries returns the built-in font selections.
func DefaultFontQueries() FontQueries {
	return FontQueries{
		Default:     DefaultFontQuery,
		FixedWidth:  FixedWidthFontQuery,
		WindowTitle: WindowTitleFontQuery,
	}
}

// WithDefaults fills empty entries from DefaultFontQueries.
func (q FontQueries) WithDefaults() FontQueries {
	d := DefaultFontQueries()
	if q.Default == "" {
		q.Default = d.Default
	}
	if q.FixedWidth == "" {
		q.FixedWidth = d.FixedWidth
	}
	if q.WindowTitle == "" {
		q.WindowTitle = d.WindowTitle
	}
	return q
}

// boldWeight is the lowest weight drawn with a bold face.
const boldWeight = 600

// FontSpec is a parsed "family size weight slope" font query.
type FontSpec struct {
	Family string
	Size   float64
	Weight int
	Slope  int
}

// ParseFontQuery parses a query such as "Katica 10 400 0". The family may
// contain spaces; the last three fields are numeric.
func ParseFontQuery(q string) (FontSpec, error) {
	fields := strings.Fields(q)
	if len(fields) < 4 {
		return FontSpec{}, fmt.Errorf("font query %q: want family size weight slope", q)
	}
	n := len(fields)
	size, err := strconv.ParseFloat(fields[n-3], 64)
	if err != nil || size <= 0 {
		return FontSpec{}, fmt.Errorf("font query %q: invalid size %q", q, fields[n-3])
	}
	weight, err := strconv.Atoi(fields[n-2])
	if err != nil {
		return FontSpec{}, fmt.Errorf("font query %q: invalid weight %q", q, fields[n-2])
	}
	slope, err := strconv.Atoi(fields[n-1])
	if err != nil {
		return FontSpec{}, fmt.Errorf("font query %q: invalid slope %q", q, fields[n-1])
	}
	return FontSpec{
		Family: strings.Join(fields[:n-3], " "),
		Size:   size,
		Weight: weight,
		Slope:  slope,
	}, nil
}

// Bold reports whether the font query asks for a bold face.
func (s FontSpec) Bold() bool { return s.Weight >= boldWeight }

// Italic reports whether the font query asks for a slanted face.
func (s FontSpec) Italic() bool { return s.Slope != 0 }

// goFonts holds the embedded Go fonts by [monospace][bold][italic].
var goFonts = [2][2][2][]byte{
	{{goregular.TTF, goitalic.TTF}, {gobold.TTF, gobolditalic.TTF}},
	{{gomono.TTF, gomonoitalic.TTF}, {gomonobold.TTF, gomonobolditalic.TTF}},
}

// GoFont returns the embedded Go font closest to spec. Families are not
// matched; mono selects the fixed-width family.
func GoFont(spec FontSpec, mono bool) []byte {
	return goFonts[b2i(mono)][b2i(spec.Bold())][b2i(spec.Italic())]
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Specs parses the three queries. Empty or malformed queries fall back to
// the defaults.
func (q FontQueries) Specs() (def, fixed, title FontSpec) {
	q = q.WithDefaults()
	d := DefaultFontQueries()
	parse := func(query, fallback string) FontSpec {
		if s, err := ParseFontQuery(query); err == nil {
			return s
		}
		s, _ := ParseFontQuery(fallback)
		return s
	}
	return parse(q.Default, d.Default), parse(q.FixedWidth, d.FixedWidth), parse(q.WindowTitle, d.WindowTitle)
}
