package misc

import "testing"

func TestGetAppName(t *testing.T) {
	old := appName
	defer func() { appName = old }()

	appName = "custom"
	if got := GetAppName(); got != "custom" {
		t.Errorf("GetAppName() = %q, want %q", got, "custom")
	}

	appName = ""
	if got := GetAppName(); got == "" {
		t.Error("GetAppName() returned empty name")
	}
}

func TestVersionDefaults(t *testing.T) {
	if GetVersion() == "" || GetGitHash() == "" {
		t.Error("version information must not be empty")
	}
}
