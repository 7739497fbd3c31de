package profile

import "testing"

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{name: "integer", input: "42", want: 42, wantOK: true},
		{name: "negative decimal", input: "-3.5", want: -3.5, wantOK: true},
		{name: "leading plus", input: "+7", want: 7, wantOK: true},
		{name: "scientific", input: "1e3", want: 1000, wantOK: true},
		{name: "leading dot", input: ".5", want: 0.5, wantOK: true},
		{name: "surrounding whitespace", input: "  12 ", want: 12, wantOK: true},
		{name: "trailing garbage", input: "12abc", wantOK: false},
		{name: "leading garbage", input: "$12", wantOK: false},
		{name: "thousands separator", input: "1,000", wantOK: false},
		{name: "hex", input: "0x1A", wantOK: false},
		{name: "hex float", input: "0x1p-2", wantOK: false},
		{name: "underscore", input: "1_000", wantOK: false},
		{name: "infinity", input: "Infinity", wantOK: false},
		{name: "inf", input: "inf", wantOK: false},
		{name: "nan", input: "NaN", wantOK: false},
		{name: "overflow", input: "1e400", wantOK: false},
		{name: "whitespace only", input: "   ", wantOK: false},
		{name: "empty", input: "", wantOK: false},
		{name: "word", input: "foo", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumeric(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseNumeric(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseNumeric(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
