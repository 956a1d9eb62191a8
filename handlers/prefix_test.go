package handlers

import (
	"reflect"
	"testing"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		content string
		prefix  string
		cmd     string
		args    []string
		ok      bool
	}{
		{"!ping", "!", "ping", []string{}, true},
		{"!clear 25", "!", "clear", []string{"25"}, true},
		{"!PANEL", "!", "panel", []string{}, true},
		{"!  ", "!", "", nil, false},
		{"hello there", "!", "", nil, false},
		{"?ping", "!", "", nil, false},
		{"!ping", "", "", nil, false},
		{"!!reload now", "!", "!reload", []string{"now"}, true},
	}

	for _, tc := range cases {
		cmd, args, ok := parseCommand(tc.content, tc.prefix)
		if ok != tc.ok || cmd != tc.cmd {
			t.Errorf("parseCommand(%q, %q) = (%q, %v, %v), want (%q, %v, %v)",
				tc.content, tc.prefix, cmd, args, ok, tc.cmd, tc.args, tc.ok)
			continue
		}
		if ok && len(tc.args) > 0 && !reflect.DeepEqual(args, tc.args) {
			t.Errorf("parseCommand(%q, %q) args = %v, want %v", tc.content, tc.prefix, args, tc.args)
		}
	}
}
