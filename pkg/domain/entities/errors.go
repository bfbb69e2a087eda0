package entities

import (
	"fmt"
	"strings"
)

// InfeasibleError signals internally inconsistent capacity or supply data.
// It aborts the whole run rather than producing undefined numbers.
type InfeasibleError struct {
	StoreID      StoreID
	ProductGroup ProductGroup
	Detail       string
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("infeasible input for store %s group %s: %s", e.StoreID, e.ProductGroup, e.Detail)
}

// ValidationFailure reports which Validated-stage checks a variant failed
type ValidationFailure struct {
	VariantID VariantID
	Failures  []string
}

func (e *ValidationFailure) Error() string {
	return fmt.Sprintf("variant %s failed validation: %s", e.VariantID, strings.Join(e.Failures, "; "))
}
