// Package validation checks incoming orders before the saga reserves stock
// or charges the customer.
package validation

import (
	"fmt"
	"strings"

	"kafka-ecommerce/shared/pkg/models"
)

// Validate returns the list of problems with an order. An empty result
// means the order may proceed.
func Validate(p models.OrderCreatedPayload) []string {
	var errs []string
	if p.CustomerID == "" {
		errs = append(errs, "invalid customer id")
	}
	if len(p.Items) == 0 {
		errs = append(errs, "no items in order")
	}
	var sum int64
	for _, it := range p.Items {
		if it.ProductID == "" {
			errs = append(errs, "item missing product id")
		}
		if it.Quantity <= 0 {
			errs = append(errs, fmt.Sprintf("invalid quantity for product %s", it.ProductID))
		}
		if it.UnitPriceCents < 0 {
			errs = append(errs, fmt.Sprintf("invalid price for product %s", it.ProductID))
		}
		sum += int64(it.Quantity) * it.UnitPriceCents
	}
	if len(p.Items) > 0 && p.TotalCents != sum {
		errs = append(errs, fmt.Sprintf("total %d does not match item sum %d", p.TotalCents, sum))
	}
	return errs
}

// FailureReason renders validation errors as a single orders.failed reason.
func FailureReason(errs []string) string {
	return "validation_failed: " + strings.Join(errs, "; ")
}
