package market

import "errors"

// Validation
var (
	ErrInvalidPrice              = errors.New("Invalid price")
	ErrInvalidDuration           = errors.New("Invalid offer duration")
	ErrInvalidAsset              = errors.New("Invalid asset")
	ErrInvalidAccount            = errors.New("Invalid account address")
	ErrDenominationNotAllowed    = errors.New("Payment denomination not allowed")
	ErrNativeNotAllowedForOffers = errors.New("Native currency cannot be used for offers")
	ErrArrayLengthMismatch       = errors.New("Array length mismatch")
	ErrRateTooHigh               = errors.New("Fee rate too high")
	ErrInvalidRecipient          = errors.New("Invalid fee recipient")
	ErrInsufficientPayment       = errors.New("Insufficient payment")
	ErrInsufficientAllowance     = errors.New("Insufficient allowance")
	ErrInsufficientBalance       = errors.New("Insufficient balance")
)

// Authorization
var (
	ErrNotAssetHolder        = errors.New("Caller is not the asset holder")
	ErrTransferNotAuthorized = errors.New("Marketplace is not authorized to transfer the asset")
	ErrNotSeller             = errors.New("Caller is not the seller")
	ErrNotBuyer              = errors.New("Caller is not the buyer")
	ErrNotAdmin              = errors.New("Caller is not the marketplace administrator")
	ErrSelfTrade             = errors.New("Buyer and seller are the same account")
)

// Not found
var (
	ErrListingNotFound = errors.New("Listing not found")
	ErrOfferNotFound   = errors.New("Offer not found")
)

// State conflict
var (
	ErrAlreadyListed       = errors.New("Asset already listed")
	ErrNotActive           = errors.New("Not active")
	ErrExpired             = errors.New("Offer expired")
	ErrSellerNoLongerHolds = errors.New("Seller no longer holds the asset")
	ErrReentrantCall       = errors.New("Reentrant call rejected")
)

// Collaborator failure
var (
	ErrPaymentTransferFailed = errors.New("Payment transfer failed")
	ErrFeeTransferFailed     = errors.New("Fee transfer failed")
	ErrRefundFailed          = errors.New("Refund failed")
	ErrAssetTransferFailed   = errors.New("Asset transfer failed")
)

// Kind groups errors by what the caller has to fix.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthorization
	KindNotFound
	KindConflict
	KindCollaborator
)

var kinds = []struct {
	kind Kind
	errs []error
}{
	{KindCollaborator, []error{ErrPaymentTransferFailed, ErrFeeTransferFailed, ErrRefundFailed, ErrAssetTransferFailed}},
	{KindValidation, []error{ErrInvalidPrice, ErrInvalidDuration, ErrInvalidAsset, ErrInvalidAccount, ErrDenominationNotAllowed,
		ErrNativeNotAllowedForOffers, ErrArrayLengthMismatch, ErrRateTooHigh, ErrInvalidRecipient, ErrInsufficientPayment,
		ErrInsufficientAllowance, ErrInsufficientBalance}},
	{KindAuthorization, []error{ErrNotAssetHolder, ErrTransferNotAuthorized, ErrNotSeller, ErrNotBuyer, ErrNotAdmin, ErrSelfTrade}},
	{KindNotFound, []error{ErrListingNotFound, ErrOfferNotFound}},
	{KindConflict, []error{ErrAlreadyListed, ErrNotActive, ErrExpired, ErrSellerNoLongerHolds, ErrReentrantCall}},
}

// KindOf classifies err. Collaborator failures are checked first because they wrap the
// collaborator's own cause, which may itself be a validation error.
func KindOf(err error) Kind {
	for _, group := range kinds {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.kind
			}
		}
	}
	return KindInternal
}

// Cause returns the first market sentinel err matches, or nil.
func Cause(err error) error {
	for _, group := range kinds {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return target
			}
		}
	}
	return nil
}
