package wagateway

import "testing"

func TestIsGroupJID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		jid  string
		want bool
	}{
		{"5511999990000@c.us", false},
		{"5511999990000@s.whatsapp.net", false},
		{"120363041234567890@g.us", true},
		{"5511999990000-1620000000@g.us", true},
		{"5511999990000-1620000000", true},
		{"5511999990000", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.jid, func(t *testing.T) {
			t.Parallel()
			if got := IsGroupJID(tt.jid); got != tt.want {
				t.Errorf("IsGroupJID(%q) = %v, want %v", tt.jid, got, tt.want)
			}
		})
	}
}

func TestPhoneFromJID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		jid  string
		want string
	}{
		{"plain individual", "5511999990000@c.us", "5511999990000"},
		{"server domain", "5511999990000@s.whatsapp.net", "5511999990000"},
		{"device suffix stripped", "5511999990000:12@c.us", "5511999990000"},
		{"formatted number", "+55 (11) 99999.0000@c.us", "5511999990000"},
		{"group yields nothing", "120363041234567890@g.us", ""},
		{"anonymized id", "abcdef123456@lid", ""},
		{"too short", "1234567@c.us", ""},
		{"bare number", "5511999990000", "5511999990000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := PhoneFromJID(tt.jid); got != tt.want {
				t.Errorf("PhoneFromJID(%q) = %q, want %q", tt.jid, got, tt.want)
			}
		})
	}
}

func TestNormalizeJID(t *testing.T) {
	t.Parallel()

	if got := NormalizeJID("  5511999990000@C.US "); got != "5511999990000@c.us" {
		t.Errorf("NormalizeJID() = %q", got)
	}
	if got := NormalizeJID("5511999990000"); got != "5511999990000" {
		t.Errorf("NormalizeJID() without domain = %q", got)
	}
}
