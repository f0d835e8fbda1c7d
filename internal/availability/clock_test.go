package availability

import "testing"

func TestParseClock(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "morning", input: "09:00", want: 540},
		{name: "with seconds", input: "09:30:15", want: 570},
		{name: "midnight", input: "00:00", want: 0},
		{name: "last minute", input: "23:59", want: 1439},
		{name: "midnight sentinel", input: "24:00", want: 1440},
		{name: "midnight sentinel with seconds", input: "24:00:00", want: 1440},
		{name: "past midnight sentinel", input: "24:01", wantErr: true},
		{name: "sentinel with nonzero seconds", input: "24:00:30", wantErr: true},
		{name: "hour out of range", input: "25:00", wantErr: true},
		{name: "minute out of range", input: "10:60", wantErr: true},
		{name: "missing minutes", input: "10", wantErr: true},
		{name: "garbage", input: "ten o'clock", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseClock(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(540); got != "09:00" {
		t.Errorf("FormatClock(540) = %q, want 09:00", got)
	}
	if got := FormatClock(990); got != "16:30" {
		t.Errorf("FormatClock(990) = %q, want 16:30", got)
	}
	if got := FormatClock(0); got != "00:00" {
		t.Errorf("FormatClock(0) = %q, want 00:00", got)
	}
	if got := FormatClock(1440); got != "24:00" {
		t.Errorf("FormatClock(1440) = %q, want 24:00", got)
	}
}
