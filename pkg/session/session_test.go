package session

import "testing"

func TestIsFixedType(t *testing.T) {
	for _, code := range []string{"TR", "LG", "FR", "CP"} {
		if !IsFixedType(code) {
			t.Errorf("IsFixedType(%q) = false, want true", code)
		}
	}
	if IsFixedType("XX") {
		t.Error("IsFixedType(XX) = true, want false")
	}
	if IsFixedType("tr") {
		t.Error("codes are case-sensitive: IsFixedType(tr) = true, want false")
	}
}

func TestTypeName(t *testing.T) {
	customs := []CustomType{
		{TeamID: "t1", Code: "TR", Name: "Morning Training"},
		{TeamID: "t1", Code: "SC", Name: "Scrimmage"},
	}

	tests := []struct {
		code string
		want string
	}{
		{"TR", "Morning Training"}, // custom shadows fixed
		{"LG", "League"},           // fixed
		{"SC", "Scrimmage"},        // custom only
		{"ZZ", "ZZ"},               // unknown resolves to itself
	}
	for _, tt := range tests {
		if got := TypeName(tt.code, customs); got != tt.want {
			t.Errorf("TypeName(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}

	if got := TypeName("TR", nil); got != "Training" {
		t.Errorf("TypeName(TR, nil) = %q, want Training", got)
	}
}
