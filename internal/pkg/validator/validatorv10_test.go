package validator

import (
	"errors"
	"testing"
)

type recoveryInput struct {
	Target string `validate:"required,login"`
	Code   string `validate:"required,otpcode"`
}

func TestV10Validator_Validate(t *testing.T) {
	t.Parallel()

	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}

	tests := []struct {
		name   string
		in     recoveryInput
		fields map[string]string
	}{
		{name: "email target", in: recoveryInput{Target: "alice@example.com", Code: "123456"}},
		{name: "username target", in: recoveryInput{Target: "alice_01", Code: "000000"}},
		{
			name:   "bad target",
			in:     recoveryInput{Target: "a b", Code: "123456"},
			fields: map[string]string{"target": "Target must be a valid email address or username"},
		},
		{
			name:   "short code",
			in:     recoveryInput{Target: "alice", Code: "12345"},
			fields: map[string]string{"code": "Code must be exactly 6 digits"},
		},
		{
			name:   "letters in code",
			in:     recoveryInput{Target: "alice", Code: "12a456"},
			fields: map[string]string{"code": "Code must be exactly 6 digits"},
		},
		{
			name:   "missing both",
			in:     recoveryInput{},
			fields: map[string]string{"target": "Target is a required field", "code": "Code is a required field"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := v.Validate(tt.in)
			if tt.fields == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			var verr V10ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want V10ValidationError", err)
			}
			for k, want := range tt.fields {
				if verr.Values()[k] != want {
					t.Fatalf("field %q = %q, want %q", k, verr.Values()[k], want)
				}
			}
			if len(verr) != len(tt.fields) {
				t.Fatalf("fields = %v", verr)
			}
		})
	}
}
