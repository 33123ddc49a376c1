package pipeline

import (
	"github.com/ppiankov/itinera/internal/model"
)

// Assemble flattens an outcome into the delivered payload. The returned error
// explains an error payload; the payload's message is always a public one.
func Assemble(o model.Outcome) (model.Payload, error) {
	switch {
	case o.Tagged > 0 && o.Succeeded == 0:
		return model.ErrorPayload(model.ErrAllCategoriesFailed), model.ErrAllCategoriesFailed
	case o.Tagged == 0 && len(o.FeeSections) == 0:
		return model.ErrorPayload(model.ErrNoCategories), model.ErrNoCategories
	}
	return model.SuccessPayload(append(append([]model.Section(nil), o.Sections...), o.FeeSections...)), nil
}
