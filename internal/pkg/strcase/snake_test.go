package strcase

import "testing"

func TestToLowerSnake(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":              "",
		"Code":          "code",
		"HandoffToken":  "handoff_token",
		"UserID":        "user_id",
		"HTTPServer":    "http_server",
		"Target2FA":     "target2_fa",
		"handoff-token": "handoff_token",
		"  Code ":       "code",
	}

	for in, want := range tests {
		if got := ToLowerSnake(in); got != want {
			t.Fatalf("ToLowerSnake(%q) = %q, want %q", in, got, want)
		}
	}
}
