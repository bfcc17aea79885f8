package order

import (
	"fmt"

	"separation/internal/pkg/errs"
)

// LogisticsMode is how an order leaves the warehouse.
type LogisticsMode int

const (
	UnknownLogistics LogisticsMode = iota
	CarrierPost
	CourierDispatch
	AlternateCarrier
	CustomerPickup
	BusFreight
	InStore
)

// PackagingMode is how an order is packed.
type PackagingMode int

const (
	UnknownPackaging PackagingMode = iota
	Box
	Bag
)

func getLogisticsStrings() map[LogisticsMode]string {
	//nolint:exhaustive // UnknownLogistics has no wire form
	return map[LogisticsMode]string{
		CarrierPost:      "carrier-post",
		CourierDispatch:  "courier-dispatch",
		AlternateCarrier: "alternate-carrier",
		CustomerPickup:   "customer-pickup",
		BusFreight:       "bus-freight",
		InStore:          "in-store",
	}
}

func getPackagingStrings() map[PackagingMode]string {
	//nolint:exhaustive // UnknownPackaging has no wire form
	return map[PackagingMode]string{
		Box: "box",
		Bag: "bag",
	}
}

// ParseLogisticsMode accepts the kebab-case names used by the API and the store.
func ParseLogisticsMode(s string) (LogisticsMode, error) {
	for mode, str := range getLogisticsStrings() {
		if str == s {
			return mode, nil
		}
	}
	return UnknownLogistics, errs.NewValueIsInvalidErrorWithCause(
		"logistics mode is invalid",
		fmt.Errorf("%q is not a valid logistics mode", s),
	)
}

// ParsePackagingMode accepts "box" or "bag".
func ParsePackagingMode(s string) (PackagingMode, error) {
	for mode, str := range getPackagingStrings() {
		if str == s {
			return mode, nil
		}
	}
	return UnknownPackaging, errs.NewValueIsInvalidErrorWithCause(
		"packaging mode is invalid",
		fmt.Errorf("%q is not a valid packaging mode", s),
	)
}

func (m LogisticsMode) String() string {
	if str, ok := getLogisticsStrings()[m]; ok {
		return str
	}
	return "unknown"
}

// Validate rejects UnknownLogistics and out-of-range values.
func (m LogisticsMode) Validate() error {
	if _, ok := getLogisticsStrings()[m]; !ok {
		return errs.NewValueIsInvalidErrorWithCause(
			"logistics mode is invalid",
			fmt.Errorf("%d is not a valid logistics mode", m),
		)
	}
	return nil
}

// RequiresBox reports whether the carrier only accepts boxed parcels.
func (m LogisticsMode) RequiresBox() bool {
	return m == CarrierPost || m == AlternateCarrier || m == BusFreight
}

func (m PackagingMode) String() string {
	if str, ok := getPackagingStrings()[m]; ok {
		return str
	}
	return "unknown"
}

// Validate rejects UnknownPackaging and out-of-range values.
func (m PackagingMode) Validate() error {
	if _, ok := getPackagingStrings()[m]; !ok {
		return errs.NewValueIsInvalidErrorWithCause(
			"packaging mode is invalid",
			fmt.Errorf("%d is not a valid packaging mode", m),
		)
	}
	return nil
}

// ValidateShipping checks both modes and the rule that carrier-post,
// alternate-carrier and bus-freight shipments must be boxed.
func ValidateShipping(logistics LogisticsMode, packaging PackagingMode) error {
	if err := logistics.Validate(); err != nil {
		return err
	}
	if err := packaging.Validate(); err != nil {
		return err
	}
	if logistics.RequiresBox() && packaging != Box {
		return &PackagingLogisticsMismatchError{Logistics: logistics, Packaging: packaging}
	}
	return nil
}
