package order

import (
	"fmt"

	"github.com/google/uuid"

	"tableside/internal/errs"
	"tableside/internal/models"
)

const (
	maxItemsPerOrder    = 20
	maxItemQuantity     = 10
	maxSpecialNotesSize = 500
)

// ValidateCreateOrder checks a creation request's shape. Menu item ownership
// is checked against the store separately, inside the lifecycle.
func ValidateCreateOrder(req *models.CreateOrderRequest) error {
	if err := validateItems(req.Items); err != nil {
		return err
	}

	if req.SpecialNotes != nil && len(*req.SpecialNotes) > maxSpecialNotesSize {
		return errs.ValidationError{
			Field:   "special_notes",
			Message: fmt.Sprintf("must not exceed %d characters", maxSpecialNotesSize),
		}
	}

	return nil
}

func validateItems(items []models.CreateOrderItemRequest) error {
	if len(items) == 0 {
		return errs.ValidationError{
			Field:   "items",
			Message: "items cannot be empty",
		}
	}

	if len(items) > maxItemsPerOrder {
		return errs.ValidationError{
			Field:   "items",
			Message: fmt.Sprintf("a maximum of %d items is allowed", maxItemsPerOrder),
		}
	}

	for i, item := range items {
		if err := validateItem(item, i); err != nil {
			return err
		}
	}
	return nil
}

func validateItem(item models.CreateOrderItemRequest, index int) error {
	if item.MenuItemID == "" {
		return errs.ValidationError{
			Field:   fmt.Sprintf("items[%d].menu_item_id", index),
			Message: "menu item id is required",
		}
	}

	if _, err := uuid.Parse(item.MenuItemID); err != nil {
		return errs.ValidationError{
			Field:   fmt.Sprintf("items[%d].menu_item_id", index),
			Message: "menu item id must be a valid uuid",
		}
	}

	if item.Quantity < 1 {
		return errs.ValidationError{
			Field:   fmt.Sprintf("items[%d].quantity", index),
			Message: "item quantity must be greater than 0",
		}
	}

	if item.Quantity > maxItemQuantity {
		return errs.ValidationError{
			Field:   fmt.Sprintf("items[%d].quantity", index),
			Message: fmt.Sprintf("item quantity must be less than or equal to %d", maxItemQuantity),
		}
	}

	return nil
}
