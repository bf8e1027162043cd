package game

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"Париж", "париж"},
		{"  Лев   Толстой  ", "лев толстой"},
		{"«Война и мир»", "война и мир"},
		{"Пушкин (поэт)", "пушкин"},
		{"ответ ((уточнение)) тут", "ответ тут"},
		{"ответ [[примечание] ещё] тут", "ответ тут"},
		{"ответ [примечание] здесь", "ответ здесь"},
		{"да, конечно!", "да конечно"},
		{"\"Quoted\" answer.", "quoted answer"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Fatalf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Париж", "«Анна Каренина» (роман)", "  много       пробелов ", "...", "",
		"1. Иван 2. Петров", "answer [x] (y) !?",
		"ответ ((уточнение)) тут", "глубоко (((вложенные))) скобки", "[[x] [y]]",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}
