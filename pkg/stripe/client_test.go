package stripe

import "testing"

func TestNormalizeEnv(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: "test"},
		{in: "Test", want: "test"},
		{in: " LIVE ", want: "live"},
		{in: "staging", wantErr: true},
	}

	for _, tc := range cases {
		got, err := normalizeEnv(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("normalizeEnv(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("normalizeEnv(%q): unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("normalizeEnv(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidateAPIKey(t *testing.T) {
	if err := validateAPIKey("test", "sk_test_123"); err != nil {
		t.Fatalf("expected test key to validate: %v", err)
	}
	if err := validateAPIKey("test", "sk_live_123"); err == nil {
		t.Fatal("expected live key to fail in test env")
	}
	if err := validateAPIKey("live", "rk_live_123"); err != nil {
		t.Fatalf("expected live key to validate: %v", err)
	}
	if err := validateAPIKey("live", "sk_test_123"); err == nil {
		t.Fatal("expected test key to fail in live env")
	}
}
