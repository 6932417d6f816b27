package theme

import (
	"bytes"
	"testing"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

func TestParseFontQuery(t *testing.T) {
	tests := []struct {
		query   string
		want    FontSpec
		wantErr bool
	}{
		{query: "Katica 10 400 0", want: FontSpec{Family: "Katica", Size: 10, Weight: 400}},
		{query: "Liberation Serif 12.5 700 1", want: FontSpec{Family: "Liberation Serif", Size: 12.5, Weight: 700, Slope: 1}},
		{query: "Katica 10 400", wantErr: true},
		{query: "Katica ten 400 0", wantErr: true},
		{query: "Katica 0 400 0", wantErr: true},
		{query: "Katica 10 bold 0", wantErr: true},
		{query: "Katica 10 400 x", wantErr: true},
		{query: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseFontQuery(tt.query)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFontQuery(%q) error = %v, wantErr %v", tt.query, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseFontQuery(%q) = %+v, want %+v", tt.query, got, tt.want)
		}
	}
}

func TestFontSpecStyle(t *testing.T) {
	if s := (FontSpec{Weight: 700}); !s.Bold() || s.Italic() {
		t.Errorf("weight 700: bold=%t italic=%t", s.Bold(), s.Italic())
	}
	if s := (FontSpec{Weight: 400, Slope: 2}); s.Bold() || !s.Italic() {
		t.Errorf("slope 2: bold=%t italic=%t", s.Bold(), s.Italic())
	}
}

func TestSpecsFallBackToDefaults(t *testing.T) {
	def, fixed, title := FontQueries{Default: "Katica 12 400 0", FixedWidth: "broken"}.Specs()
	if def.Size != 12 {
		t.Errorf("default size = %v, want 12", def.Size)
	}
	if fixed.Family != "Csilla" || fixed.Size != 10 {
		t.Errorf("fixed = %+v, want the default fixed-width query", fixed)
	}
	if title.Family != "Katica" || !title.Bold() {
		t.Errorf("title = %+v, want the default bold title query", title)
	}
}

func TestGoFont(t *testing.T) {
	tests := []struct {
		name string
		spec FontSpec
		mono bool
		want []byte
	}{
		{"regular", FontSpec{Weight: 400}, false, goregular.TTF},
		{"bold", FontSpec{Weight: 700}, false, gobold.TTF},
		{"mono italic", FontSpec{Weight: 400, Slope: 1}, true, gomonoitalic.TTF},
	}
	for _, tt := range tests {
		if got := GoFont(tt.spec, tt.mono); !bytes.Equal(got, tt.want) {
			t.Errorf("%s: wrong font", tt.name)
		}
	}
}
