package apdu

import "fmt"

// STATUS CLASSIFICATION:
// Every status word maps to exactly one Outcome. The mapping is data, not
// control flow: a StatusTable holds exact matches and range rules, and
// anything it does not know about is Fatal(UnknownStatus). Only 0x9000 is a
// Success.

// Kind is the coarse result of a status word.
type Kind int

const (
	Success Kind = iota
	Retryable
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "Success"
	case Retryable:
		return "Retryable"
	case Fatal:
		return "Fatal"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Reason qualifies a non-successful Outcome. It implements error so callers
// can test a failure with errors.Is(err, apdu.UserRejected).
type Reason int

const (
	NoReason Reason = iota
	ContinueExchange
	SecurityConditionNotSatisfied
	UserRejected
	InvalidRequest
	AppNotActive
	UnknownStatus
)

var reasonDescriptions = map[Reason]string{
	NoReason:                      "no reason",
	ContinueExchange:              "continue exchange",
	SecurityConditionNotSatisfied: "security condition not satisfied (device locked or app not open)",
	UserRejected:                  "user rejected the request on the device",
	InvalidRequest:                "invalid request parameters",
	AppNotActive:                  "app not active on the device",
	UnknownStatus:                 "unknown status",
}

func (r Reason) String() string {
	if desc, ok := reasonDescriptions[r]; ok {
		return desc
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

func (r Reason) Error() string {
	return r.String()
}

// Outcome is the classification of one status word.
type Outcome struct {
	Kind   Kind
	Reason Reason
	Status StatusWord
}

// IsSuccess reports whether the outcome is the unique Success outcome.
func (o Outcome) IsSuccess() bool {
	return o.Kind == Success
}

// IsContinue reports whether the device asked the host to keep the exchange going.
func (o Outcome) IsContinue() bool {
	return o.Kind == Retryable && o.Reason == ContinueExchange
}

func (o Outcome) String() string {
	if o.Kind == Success {
		return fmt.Sprintf("%s [%04X]", o.Kind, uint16(o.Status))
	}
	return fmt.Sprintf("%s(%s) [%04X]", o.Kind, o.Reason, uint16(o.Status))
}

// StatusRange maps an inclusive range of status words to a Kind and Reason.
type StatusRange struct {
	From, To StatusWord
	Kind     Kind
	Reason   Reason
}

func (r StatusRange) contains(sw StatusWord) bool {
	return sw >= r.From && sw <= r.To
}

// StatusTable classifies status words. Exact entries win over ranges; ranges
// are checked in order.
type StatusTable struct {
	exact  map[StatusWord]Outcome
	ranges []StatusRange
}

// DefaultStatusTable returns the classification used by the application.
func DefaultStatusTable() StatusTable {
	fatal := func(sw StatusWord, r Reason) Outcome {
		return Outcome{Kind: Fatal, Reason: r, Status: sw}
	}

	return StatusTable{
		exact: map[StatusWord]Outcome{
			SW_NO_ERROR:               {Kind: Success, Reason: NoReason, Status: SW_NO_ERROR},
			SW_ERR_SECURITY_STATUS:    fatal(SW_ERR_SECURITY_STATUS, SecurityConditionNotSatisfied),
			SW_ERR_CONDITIONS_NOT_SAT: fatal(SW_ERR_CONDITIONS_NOT_SAT, UserRejected),
			SW_ERR_DATA_INVALID:       fatal(SW_ERR_DATA_INVALID, InvalidRequest),
			SW_ERR_WRONG_P1P2:         fatal(SW_ERR_WRONG_P1P2, InvalidRequest),
			SW_ERR_CLA_NOT_SUPPORTED:  fatal(SW_ERR_CLA_NOT_SUPPORTED, AppNotActive),
		},
		ranges: []StatusRange{
			{From: SW_NO_ERROR + 1, To: 0x9FFF, Kind: Retryable, Reason: ContinueExchange},
		},
	}
}

// With returns a copy of the table with an extra exact entry. Mapping a code
// other than 0x9000 to Success is refused so that Success stays unique.
func (t StatusTable) With(sw StatusWord, kind Kind, reason Reason) StatusTable {
	exact := make(map[StatusWord]Outcome, len(t.exact)+1)
	for k, v := range t.exact {
		exact[k] = v
	}
	if kind == Success && sw != SW_NO_ERROR {
		kind, reason = Fatal, UnknownStatus
	}
	exact[sw] = Outcome{Kind: kind, Reason: reason, Status: sw}

	ranges := make([]StatusRange, len(t.ranges))
	copy(ranges, t.ranges)

	return StatusTable{exact: exact, ranges: ranges}
}

// Classify maps a status word to its Outcome. It is total.
func (t StatusTable) Classify(sw StatusWord) Outcome {
	if o, ok := t.exact[sw]; ok {
		return o
	}
	for _, r := range t.ranges {
		if r.contains(sw) {
			return Outcome{Kind: r.Kind, Reason: r.Reason, Status: sw}
		}
	}
	return Outcome{Kind: Fatal, Reason: UnknownStatus, Status: sw}
}

// Classify uses the default table.
func Classify(sw StatusWord) Outcome {
	return defaultTable.Classify(sw)
}

var defaultTable = DefaultStatusTable()
