package fact

import (
	"encoding/json"
	"testing"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name  string
		a, b  string
		equal bool
	}{
		{"same text", "Dogs have three eyelids", "Dogs have three eyelids", true},
		{"case differs", "Dogs Have Three Eyelids", "dogs have three eyelids", true},
		{"all caps", "DOGS HAVE THREE EYELIDS", "dogs have three eyelids", true},
		{"different text", "Dogs have three eyelids", "Dogs have two eyelids", false},
		{"whitespace is significant", "Dogs have three eyelids ", "Dogs have three eyelids", false},
		{"non-ascii", "HUNDE SIND TOLL ÄÖÜ", "hunde sind toll äöü", true},
		// Full Unicode case folding, not ToLower: ß folds to ss.
		{"sharp s folds to ss", "Der Hund ist groß", "DER HUND IST GROSS", true},
		{"final sigma", "ΚΎΩΝ ΣΚΥΛΟΣ", "κύων σκυλος", true},
		{"accents are not folded", "café", "cafe", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Key(tt.a) == Key(tt.b)
			if got != tt.equal {
				t.Errorf("Key(%q) == Key(%q) is %v, want %v", tt.a, tt.b, got, tt.equal)
			}
		})
	}
}

func TestIsBlank(t *testing.T) {
	for _, s := range []string{"", " ", "\t\n "} {
		if !IsBlank(s) {
			t.Errorf("IsBlank(%q) = false, want true", s)
		}
	}
	if IsBlank(" a ") {
		t.Error("IsBlank(\" a \") = true, want false")
	}
}

func TestContains(t *testing.T) {
	facts := []Fact{
		{Description: "Dogs have three eyelids"},
		{Description: "A dog's nose print is unique"},
	}

	if !Contains(facts, "dogs HAVE three eyelids") {
		t.Error("expected case-insensitive match")
	}
	if Contains(facts, "Dogs sweat through their paws") {
		t.Error("unexpected match")
	}
	if Contains(nil, "anything") {
		t.Error("nil collection should contain nothing")
	}
}

func TestDescriptions(t *testing.T) {
	got := Descriptions([]Fact{{Description: "a"}, {Description: "b"}})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Descriptions() = %v, want [a b]", got)
	}
	if got := Descriptions(nil); got == nil || len(got) != 0 {
		t.Errorf("Descriptions(nil) = %#v, want empty non-nil slice", got)
	}
}

func TestFact_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"description key", `{"description":"Dogs have three eyelids"}`, "Dogs have three eyelids"},
		{"legacy fact key", `{"fact":"Dogs have three eyelids"}`, "Dogs have three eyelids"},
		{"description wins", `{"fact":"old","description":"new"}`, "new"},
		{"neither key", `{"other":"x"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Fact
			if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if f.Description != tt.want {
				t.Errorf("Description = %q, want %q", f.Description, tt.want)
			}
		})
	}
}

func TestFact_MarshalUsesDescription(t *testing.T) {
	data, err := json.Marshal(Fact{Description: "Dogs dream"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"description":"Dogs dream"}` {
		t.Errorf("Marshal = %s", data)
	}
}
