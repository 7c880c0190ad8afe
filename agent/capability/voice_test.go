package capability

import "testing"

func TestPreprocessForSpeech(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "markdown link keeps label",
			in:   "See [the report](https://example.com/report) for details.",
			want: "See the report for details.",
		},
		{
			name: "bare url replaced",
			in:   "Check https://example.com/page now",
			want: "Check link now",
		},
		{
			name: "markup stripped",
			in:   "This is **very** important `code` _here_",
			want: "This is very important code here",
		},
		{
			name: "whitespace collapsed",
			in:   "too   many\n\nspaces",
			want: "too many spaces",
		},
		{
			name: "empty after cleanup",
			in:   "**",
			want: "",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := PreprocessForSpeech(tc.in); got != tc.want {
				t.Fatalf("PreprocessForSpeech(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNewVoiceSynthesizerRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewVoiceSynthesizer(VoiceConfig{}); err == nil {
		t.Fatalf("expected error without api key")
	}
	v, err := NewVoiceSynthesizer(VoiceConfig{APIKey: "k", VoiceID: "v", ModelID: "m"})
	if err != nil {
		t.Fatalf("NewVoiceSynthesizer() error = %v", err)
	}
	if v == nil {
		t.Fatalf("expected synthesizer")
	}
}
