package twopart

import "strings"

// Tier orders elements when matched quantities are reshuffled. Lower tiers
// are filled first.
type Tier int

const (
	TierUnsupportedFixed Tier = iota
	TierUnsupportedTimeLimited
	TierSupportedFixed
	TierSupportedTimeLimited
)

func (t Tier) String() string {
	switch t {
	case TierUnsupportedFixed:
		return "unsupported"
	case TierUnsupportedTimeLimited:
		return "unsupported time-limited"
	case TierSupportedFixed:
		return "supported"
	case TierSupportedTimeLimited:
		return "supported time-limited"
	default:
		return "unknown"
	}
}

// TierOf classifies an element. Any source other than supported is treated
// as unsupported.
func TierOf(e ChargeElement) Tier {
	supported := e.Source == SourceSupported
	switch {
	case !supported && !e.IsTimeLimited():
		return TierUnsupportedFixed
	case !supported:
		return TierUnsupportedTimeLimited
	case !e.IsTimeLimited():
		return TierSupportedFixed
	default:
		return TierSupportedTimeLimited
	}
}

// ComparePriority orders a before b when it returns a negative number: by
// tier, then by more billable days, then by id.
func ComparePriority(a, b PreparedElement) int {
	if ta, tb := TierOf(a.ChargeElement), TierOf(b.ChargeElement); ta != tb {
		return int(ta) - int(tb)
	}
	if a.BillableDays != b.BillableDays {
		return b.BillableDays - a.BillableDays
	}
	return strings.Compare(a.ID, b.ID)
}
