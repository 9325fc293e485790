package services

import "testing"

func TestNormalizeProgram(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"Master in Information Technology", "master in information technology"},
		{"  MASTER  IN   INFORMATION TECHNOLOGY ", "master in information technology"},
		{"Doctor of Philosophy in Education", "doctor of philosophy in education"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := NormalizeProgram(tc.in); got != tc.want {
			t.Errorf("NormalizeProgram(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFallbackCoordinatorsKeysAreNormalized(t *testing.T) {
	t.Parallel()

	for program := range fallbackCoordinators {
		if NormalizeProgram(program) != program {
			t.Errorf("fallback key %q is not stored normalized", program)
		}
	}
}
