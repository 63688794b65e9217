package wsproxy

import "testing"

func TestConvertToWS_SchemeMapping(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"http://svc.internal:8080/notes?x=1#frag", "ws://svc.internal:8080/notes?x=1#frag"},
		{"https://svc.internal/notes", "wss://svc.internal/notes"},
		{"ftp://svc.internal/notes", "ftp://svc.internal/notes"},
	}
	for _, c := range cases {
		got, err := convertToWS(c.in)
		if err != nil {
			t.Fatalf("convertToWS(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("convertToWS(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
