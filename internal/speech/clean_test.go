package speech

import "testing"

func TestCleanTranscription(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  go to storage  ", "go to storage"},
		{"[BLANK_AUDIO]", ""},
		{"(keyboard clicking) what can I cook", "what can I cook"},
		{"[00:00:00.000 --> 00:00:02.000]   open the camera", "open the camera"},
		{"what can\nI cook\r\n", "what can I cook"},
		{"Thank you.", ""},
		{"you", ""},
		{"thank you for the eggs", "thank you for the eggs"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := cleanTranscription(tt.in); got != tt.want {
				t.Errorf("cleanTranscription(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
