package session

import "time"

// Session is a single authorized portal client.
//
// IP and MAC are the client identity captured at issuance time; an empty value
// means the session is not bound on that field. Username is informational and
// never consulted during validation.
type Session struct {
	Token    string
	IP       string
	MAC      string
	Username string

	ExpireAt time.Time
}

// Expired reports whether the session is no longer valid at now.
// A session is still valid at exactly ExpireAt.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpireAt)
}

func (s Session) matches(ip, mac string) bool {
	if ip != "" && ip != s.IP {
		return false
	}
	if mac != "" && mac != s.MAC {
		return false
	}
	return true
}

// Stats is a point-in-time view of store activity.
type Stats struct {
	Live    int
	Created uint64
	Revoked uint64
	Expired uint64
}
