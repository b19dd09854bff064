package domain

import "slices"

// Multi-choice business term fields of the draft.
const (
	OptionBusinessType    = "businessType"
	OptionShippingMethods = "shippingMethods"
	OptionDeliveryAreas   = "deliveryAreas"
	OptionPaymentTerms    = "paymentTerms"
)

// AllowedOptions lists the choices offered for each multi-choice field.
var AllowedOptions = map[string][]string{
	OptionBusinessType:    {"Manufacturer", "Wholesaler", "Distributor", "Importer", "Other"},
	OptionShippingMethods: {"Air Freight", "Sea Freight", "Land Transport", "Express Delivery", "Standard Delivery"},
	OptionDeliveryAreas:   {"Seminyak", "Bali"},
	OptionPaymentTerms:    {"Net 30", "Net 60", "Advance Payment", "Cash on Delivery", "Other"},
}

// ToggleOption adds value to the named list, or removes it when present.
// It reports whether the value is selected afterwards.
func (d *ApplicationDraft) ToggleOption(field, value string) (bool, error) {
	allowed, ok := AllowedOptions[field]
	if !ok {
		return false, &ErrValidation{Field: field, Message: "Unknown option field: " + field}
	}
	if !slices.Contains(allowed, value) {
		return false, &ErrValidation{Field: field, Message: "Unknown option: " + value}
	}

	list := d.optionList(field)
	if i := slices.Index(*list, value); i >= 0 {
		*list = slices.Delete(slices.Clone(*list), i, i+1)
		return false, nil
	}
	*list = append(slices.Clone(*list), value)
	return true, nil
}

func (d *ApplicationDraft) optionList(field string) *[]string {
	switch field {
	case OptionBusinessType:
		return &d.BusinessType
	case OptionShippingMethods:
		return &d.ShippingMethods
	case OptionDeliveryAreas:
		return &d.DeliveryAreas
	default:
		return &d.PaymentTerms
	}
}

// WarehouseInput is a warehouse as typed by the user.
type WarehouseInput struct {
	WarehouseName    string `json:"warehouseName" validate:"required_trimmed"`
	Location         string `json:"location"`
	HandlingCapacity string `json:"handlingCapacity"`
}

// DocumentInput is a verification document as uploaded by the user.
type DocumentInput struct {
	DocumentID    string `json:"documentId" validate:"required_trimmed"`
	DocumentImage string `json:"documentImage"`
	Description   string `json:"description"`
}
