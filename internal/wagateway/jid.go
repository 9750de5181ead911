package wagateway

import "strings"

const (
	groupSuffix      = "@g.us"
	individualSuffix = "@c.us"
	serverSuffix     = "@s.whatsapp.net"
)

// NormalizeJID trims a remote identifier and lowercases its server part.
func NormalizeJID(raw string) string {
	jid := strings.TrimSpace(raw)
	at := strings.IndexByte(jid, '@')
	if at < 0 {
		return jid
	}
	return jid[:at] + strings.ToLower(jid[at:])
}

// IsGroupJID reports whether the identifier addresses a group chat.
//
// This is a textual heuristic over the gateway's current identifier
// formats: the group domain suffix, or a hyphenated non-numeric local
// part (legacy group ids). Replace with an explicit identifier-kind
// field if the gateway ever exposes one.
func IsGroupJID(jid string) bool {
	jid = NormalizeJID(jid)
	if strings.HasSuffix(jid, groupSuffix) {
		return true
	}
	local := jid
	if at := strings.IndexByte(jid, '@'); at >= 0 {
		local = jid[:at]
	}
	return strings.Contains(local, "-") && !allDigits(local)
}

// PhoneFromJID extracts the normalized phone number from an individual
// identifier, or "" when the identifier is not phone-derived (groups,
// anonymized ids).
func PhoneFromJID(jid string) string {
	jid = NormalizeJID(jid)
	if IsGroupJID(jid) {
		return ""
	}
	local := jid
	if at := strings.IndexByte(jid, '@'); at >= 0 {
		local = jid[:at]
	}
	// Device suffix (":12") and participant markers are not part of the
	// phone number.
	if colon := strings.IndexByte(local, ':'); colon >= 0 {
		local = local[:colon]
	}
	var digits strings.Builder
	for _, r := range local {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '+' || r == ' ' || r == '(' || r == ')' || r == '.':
			// Formatting noise some gateways leave in.
		default:
			return ""
		}
	}
	if digits.Len() < 8 {
		return ""
	}
	return digits.String()
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
