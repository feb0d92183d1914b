package main

import (
	"testing"

	"github.com/vesaakerman/easy-pid-generator/internal/pid"
)

func TestResolveKind(t *testing.T) {
	cases := []struct {
		flag    string
		want    pid.Kind
		wantErr bool
	}{
		{"doi", pid.KindDOI, false},
		{"urn", pid.KindURN, false},
		{"DOI", "", true},
		{"bogus", "", true},
	}
	for _, c := range cases {
		kindFlag = c.flag
		got, err := resolveKind()
		if c.wantErr {
			if err == nil {
				t.Errorf("resolveKind(%q) = %v, nil, want an error", c.flag, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("resolveKind(%q) returned error: %v", c.flag, err)
		}
		if got != c.want {
			t.Errorf("resolveKind(%q) = %q, want %q", c.flag, got, c.want)
		}
	}
}
