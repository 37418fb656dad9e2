package emails

import "strings"

// Validate checks that every field the prompt needs is present.
func (r GenerationRequest) Validate() error {
	v := &ValidationError{}
	required(v, "prospect.name", r.Prospect.Name)
	required(v, "prospect.company", r.Prospect.Company)
	required(v, "prospect.role", r.Prospect.Role)
	required(v, "product.description", r.Product.Description)
	required(v, "product.painPoint", r.Product.PainPoint)
	required(v, "product.solution", r.Product.Solution)
	switch strings.TrimSpace(r.Strategy.CTAType) {
	case CTADirect, CTASoft:
	case "":
		v.add("strategy.ctaType", "required")
	default:
		v.add("strategy.ctaType", "must be direct or soft")
	}
	return v.orNil()
}

func required(v *ValidationError, field, value string) {
	if strings.TrimSpace(value) == "" {
		v.add(field, "required")
	}
}
