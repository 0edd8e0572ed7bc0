package main

import "testing"

func TestStdoutTaken(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{nil, false},
		{[]string{"convert", "src", "dst"}, false},
		{[]string{"convert", "--platform", "ios", "-"}, true},
		{[]string{"dumptree", "a.css"}, true},
		{[]string{"dumpconfig"}, true},
		{[]string{"dumpconfig", "--default"}, true},
		{[]string{"dumpconfig", "--default", "out.yaml"}, false},
		{[]string{"unknown", "-"}, false},
	}
	for _, tt := range tests {
		if got := stdoutTaken(tt.args); got != tt.want {
			t.Errorf("stdoutTaken(%q) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
