package dnscache

import (
	"strconv"

	"github.com/miekg/dns"
)

// DnsTypeToString returns the mnemonic for a DNS type if known,
// otherwise its decimal value. Used in diagnostic log lines so a
// malformed-entry eviction reads "A" rather than "1".
func DnsTypeToString(qtype uint16) string {
	if s, ok := dns.TypeToString[qtype]; ok {
		return s
	}
	return strconv.Itoa(int(qtype))
}
