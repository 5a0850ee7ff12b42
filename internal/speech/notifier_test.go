package speech

import "testing"

func TestCleanForSpeech(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"[TIMER] Pasta timer is done!", "Pasta timer is done!"},
		{"\x1b[1;33mCheck the oven.\x1b[0m", "Check the oven."},
		{"  plain text  ", "plain text"},
		{"[WATCHER] \x1b[2mStill with me?\x1b[0m", "Still with me?"},
	}

	for _, tt := range tests {
		if got := cleanForSpeech(tt.in); got != tt.want {
			t.Errorf("cleanForSpeech(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
