package model

// Delivery status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// CategoryFailure records one category that contributed no sections
type CategoryFailure struct {
	Category Category `json:"category"`
	Err      error    `json:"-"`
	Reason   string   `json:"reason"` // Internal diagnostic, never delivered
}

// Outcome is the coordinator's internal view of a fan-out, including partial failure
type Outcome struct {
	Sections    []Section         // Succeeded tagged categories, flattened in dispatch order
	FeeSections []Section         // Synthesized fee sections, appended last on assembly
	Failures    []CategoryFailure // One entry per failed slot, in dispatch order
	Tagged      int               // Number of tagged categories dispatched
	Succeeded   int               // Number of tagged categories that produced sections
}

// Failed reports whether category c failed
func (o *Outcome) Failed(c Category) bool {
	for _, f := range o.Failures {
		if f.Category == c {
			return true
		}
	}
	return false
}

// Payload is the terminal result handed to delivery. It has exactly two shapes:
// success with sections, or error with a message and an empty section list.
type Payload struct {
	Status   string    `json:"status"`
	Error    string    `json:"error,omitempty"`
	Sections []Section `json:"sections"`
}

// SuccessPayload builds the success shape
func SuccessPayload(sections []Section) Payload {
	if sections == nil {
		sections = []Section{}
	}
	return Payload{Status: StatusSuccess, Sections: sections}
}

// ErrorPayload builds the error shape with a public message derived from err
func ErrorPayload(err error) Payload {
	return Payload{Status: StatusError, Error: PublicMessage(err), Sections: []Section{}}
}
