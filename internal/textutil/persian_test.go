package textutil

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"arabic yeh", "ايران خودرو", "ایران خودرو"},
		{"arabic kaf", "بانك ملت", "بانک ملت"},
		{"zwnj", "هم‌وزن", "هم وزن"},
		{"whitespace collapse", "  فولاد   مبارکه ", "فولاد مبارکه"},
		{"empty", "", ""},
		{"ascii passthrough", "USD/RIAL", "USD/RIAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeSymbol(t *testing.T) {
	if got := NormalizeSymbol(" و خارزم "); got != "وخارزم" {
		t.Errorf("NormalizeSymbol = %q, want وخارزم", got)
	}
	// Arabic and Persian spellings of the same symbol must collide.
	if NormalizeSymbol("فولاد") != NormalizeSymbol("فولاد") {
		t.Error("identical symbols do not normalize equal")
	}
}

func TestDigits(t *testing.T) {
	tests := []struct{ in, want string }{
		{"۱۲۳۴۵", "12345"},
		{"1,234,567", "1234567"},
		{"٤٢", "42"},
		{" ۱۲.۵ ", "12.5"},
	}
	for _, tt := range tests {
		if got := Digits(tt.in); got != tt.want {
			t.Errorf("Digits(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
