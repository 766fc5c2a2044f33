package domain

// CheckoutSection identifies one step of the multi-section checkout form.
type CheckoutSection string

const (
	SectionShipping CheckoutSection = "shipping"
	SectionPayment  CheckoutSection = "payment"
	SectionReview   CheckoutSection = "review"
)

// CheckoutDraft holds the user's in-progress checkout form state, autosaved
// for recovery across restarts within a bounded time window.
type CheckoutDraft struct {
	FormData          map[string]any           `json:"formData"`
	ActiveSection     CheckoutSection          `json:"activeSection"`
	CompletedSections map[CheckoutSection]bool `json:"completedSections"`
}

// EmptyDraft returns the default draft: no form data, shipping section
// active, nothing completed.
func EmptyDraft() CheckoutDraft {
	return CheckoutDraft{
		FormData:          map[string]any{},
		ActiveSection:     SectionShipping,
		CompletedSections: map[CheckoutSection]bool{},
	}
}
