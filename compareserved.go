package dnscache

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// CompareServed compares two served replies and returns ordering
// information. It ignores TTL values and record ordering within a
// section, and reports any discovered differences as plain text to w.
//
// Return values:
//   - -1 if a has less data than b
//   - +1 if a has more data than b
//   - 0 if the messages are equivalent
func CompareServed(a, b *ServedMessage, w io.Writer) (cmp int) {
	out := io.Discard
	if w != nil {
		out = w
	}

	equivalent := true
	if !compareServedRcode(a, b, out) {
		equivalent = false
	}
	if !compareServedSection("answer", servedAnswer(a), servedAnswer(b), out) {
		equivalent = false
	}
	if !compareServedSection("authority", servedAuthority(a), servedAuthority(b), out) {
		equivalent = false
	}
	if !compareServedSection("additional", servedAdditional(a), servedAdditional(b), out) {
		equivalent = false
	}
	if !equivalent {
		cmp = compareServedOrdering(a, b)
	}
	return
}

func compareServedRcode(a, b *ServedMessage, w io.Writer) (equivalent bool) {
	equivalent = true
	if a != nil || b != nil {
		if a == nil || b == nil {
			equivalent = false
		} else {
			equivalent = Rcode(a.Flags) == Rcode(b.Flags)
		}
		if !equivalent {
			_, _ = fmt.Fprintf(w, "rcode differs: a=%d b=%d\n", servedRcodeValue(a), servedRcodeValue(b))
		}
	}
	return
}

func compareServedSection(section string, a, b []ServedRRset, w io.Writer) (equivalent bool) {
	unmatchedB := append([]ServedRRset(nil), b...)
	equivalent = true

	for _, aRR := range a {
		matchIdx := matchingServedIndex(aRR, unmatchedB)
		if matchIdx >= 0 {
			unmatchedB = append(unmatchedB[:matchIdx], unmatchedB[matchIdx+1:]...)
		} else {
			equivalent = false
			_, _ = fmt.Fprintf(w, "%s only in a: %s\n", section, servedRRsetText(aRR))
		}
	}

	for _, bRR := range unmatchedB {
		equivalent = false
		_, _ = fmt.Fprintf(w, "%s only in b: %s\n", section, servedRRsetText(bRR))
	}

	return
}

func compareServedOrdering(a, b *ServedMessage) (cmp int) {
	aCount := servedRRsetCount(a)
	bCount := servedRRsetCount(b)
	cmp = compareInt(aCount, bCount)
	if cmp == 0 {
		cmp = compareInt(servedRcodeValue(a), servedRcodeValue(b))
	}
	if cmp == 0 {
		cmp = compareInt(len(servedAnswer(a)), len(servedAnswer(b)))
	}
	if cmp == 0 {
		cmp = compareInt(len(servedAuthority(a)), len(servedAuthority(b)))
	}
	if cmp == 0 {
		cmp = compareInt(len(servedAdditional(a)), len(servedAdditional(b)))
	}
	if cmp == 0 {
		cmp = compareServedRRsetLists(servedAnswer(a), servedAnswer(b))
	}
	if cmp == 0 {
		cmp = compareServedRRsetLists(servedAuthority(a), servedAuthority(b))
	}
	if cmp == 0 {
		cmp = compareServedRRsetLists(servedAdditional(a), servedAdditional(b))
	}
	return
}

func compareServedRRsetLists(a, b []ServedRRset) (cmp int) {
	keysA := servedRRsetKeys(a)
	keysB := servedRRsetKeys(b)
	cmp = compareInt(len(keysA), len(keysB))
	if cmp == 0 {
		for i := 0; i < len(keysA) && cmp == 0; i++ {
			cmp = strings.Compare(keysA[i], keysB[i])
		}
	}
	return
}

func servedRRsetKeys(rrsets []ServedRRset) (keys []string) {
	keys = make([]string, 0, len(rrsets))
	for _, rr := range rrsets {
		keys = append(keys, servedRRsetKey(rr))
	}
	sort.Strings(keys)
	return
}

// servedRRsetKey builds a TTL-insensitive identity string for an rrset
// out of its key and the raw wire bytes of its records, so two rrsets
// that differ only in remaining TTL compare equal.
func servedRRsetKey(rr ServedRRset) (key string) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%d|%d|%d|", rr.Key.Name, rr.Key.Type, rr.Key.Class, rr.Key.Flags)
	if rr.Data != nil {
		for _, rd := range rr.Data.RRData {
			b.Write(rd)
		}
	}
	key = b.String()
	return
}

func matchingServedIndex(target ServedRRset, candidates []ServedRRset) (idx int) {
	idx = -1
	targetKey := servedRRsetKey(target)
	for i, candidate := range candidates {
		if servedRRsetKey(candidate) == targetKey {
			idx = i
			break
		}
	}
	return
}

func servedRRsetText(rr ServedRRset) string {
	return fmt.Sprintf("%s %d %d (%d records)", rr.Key.Name, rr.Key.Type, rr.Key.Class, rr.Data.total())
}

func servedRcodeValue(msg *ServedMessage) (rcode int) {
	rcode = -1
	if msg != nil {
		rcode = Rcode(msg.Flags)
	}
	return
}

func servedRRsetCount(msg *ServedMessage) (n int) {
	if msg != nil {
		n = len(msg.Answer) + len(msg.Authority) + len(msg.Additional)
	}
	return
}

func servedAnswer(msg *ServedMessage) (answer []ServedRRset) {
	if msg != nil {
		answer = msg.Answer
	}
	return
}

func servedAuthority(msg *ServedMessage) (authority []ServedRRset) {
	if msg != nil {
		authority = msg.Authority
	}
	return
}

func servedAdditional(msg *ServedMessage) (additional []ServedRRset) {
	if msg != nil {
		additional = msg.Additional
	}
	return
}

func compareInt(a, b int) (cmp int) {
	if a < b {
		cmp = -1
	} else if a > b {
		cmp = 1
	}
	return
}
