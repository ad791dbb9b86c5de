package checkout

import "errors"

var (
	// ErrContactUnverified gates every payment entry point until the external
	// verification flow has confirmed the user's contact.
	ErrContactUnverified = errors.New("checkout: contact verification required")
	// ErrInvalidMethod rejects an unknown payment method name.
	ErrInvalidMethod = errors.New("checkout: invalid payment method")
	// ErrDiscountPending blocks a payment method while the discount sub-flow
	// still awaits an answer or a code.
	ErrDiscountPending = errors.New("checkout: resolve discount first")
	// ErrNoStagedCode rejects an apply action before any code was submitted.
	ErrNoStagedCode = errors.New("checkout: no discount code staged")
	// ErrInvalidReceipt rejects a receipt that is not exactly one of photo,
	// document, or text.
	ErrInvalidReceipt = errors.New("checkout: receipt must be a photo, a document, or text")
	// ErrInvalidComment rejects an empty comment submission; the no-comment
	// sentinels are accepted instead.
	ErrInvalidComment = errors.New("checkout: comment must be non-empty text")
	// ErrPlanNotEligible rejects the first-plan path for non-subscription
	// categories.
	ErrPlanNotEligible = errors.New("checkout: first-plan is not available for this order")
	// ErrPlanAlreadyUsed enforces the one-time-offer rule.
	ErrPlanAlreadyUsed = errors.New("checkout: first-plan already used")
)
