package utils

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Spicy Garlic Noodles", "spicy-garlic-noodles"},
		{"  Spicy   Garlic -- Noodles!  ", "spicy-garlic-noodles"},
		{"Mum's Apple Pie (v2)", "mum-s-apple-pie-v2"},
		{"ALREADY-slugged", "already-slugged"},
		{"Crème Brûlée", "cr-me-br-l-e"},
		{"---", ""},
		{"", ""},
		{"10 Minute Eggs", "10-minute-eggs"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	titles := []string{
		"Spicy Garlic Noodles",
		"Mum's Apple Pie (v2)",
		"  weird__spacing\tand\nnewlines ",
		"Ça va? 100% Café",
	}
	for _, title := range titles {
		once := Slugify(title)
		if twice := Slugify(once); twice != once {
			t.Errorf("Slugify(Slugify(%q)) = %q, want %q", title, twice, once)
		}
		if again := Slugify(title); again != once {
			t.Errorf("Slugify(%q) not deterministic: %q vs %q", title, again, once)
		}
	}
}
