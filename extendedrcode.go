package dnscache

import "fmt"

// ExtendedRcode is a DNS Extended Error code (RFC 8914). The cache
// core doesn't build OPT records itself, but it tags synthesized
// degenerate replies with one so a caller assembling the outgoing
// message can surface the right EDE code without re-deriving why the
// cache produced what it did.
// Only a few RFC 8914 codes are named here, and this package itself
// sets only ExtendedRcodeOther, on a DNAME-overflow reply; a caller
// that needs the full RFC 8914 vocabulary maps it itself.
type ExtendedRcode uint16

const (
	ExtendedRcodeOther       ExtendedRcode = 0
	ExtendedRcodeStaleAnswer ExtendedRcode = 3
	ExtendedRcodeNSECMissing ExtendedRcode = 12
	ExtendedRcodeCachedError ExtendedRcode = 13
)

type extendedRcodeError ExtendedRcode

func (e extendedRcodeError) Error() string {
	return fmt.Sprintf("dnscache: extended rcode %d", uint16(e))
}

func (e extendedRcodeError) Is(target error) bool {
	return target == ErrExtendedRcode
}

// ErrExtendedRcode is the comparable sentinel other ExtendedRcode
// errors compare equal to via errors.Is.
var ErrExtendedRcode = extendedRcodeError(0)

// Ptr returns a pointer to r, convenient for ReplyInfo.ExtError literals.
func (r ExtendedRcode) Ptr() *ExtendedRcode { return &r }
