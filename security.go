package dnscache

// Security is the precomputed DNSSEC trust/security status of an
// RRset. The cache core never computes this; it only carries the
// value a validator assigned.
type Security int

const (
	SecurityUnchecked Security = iota
	SecurityBogus
	SecurityIndeterminate
	SecurityInsecure
	SecuritySecure
)

var securityNames = [...]string{
	SecurityUnchecked:     "unchecked",
	SecurityBogus:         "bogus",
	SecurityIndeterminate: "indeterminate",
	SecurityInsecure:      "insecure",
	SecuritySecure:        "secure",
}

func (s Security) String() string {
	if int(s) >= 0 && int(s) < len(securityNames) {
		return securityNames[s]
	}
	return "unknown_security"
}
