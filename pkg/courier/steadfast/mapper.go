package steadfast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tournevent/courier/pkg/courier"
)

// PhoneLength is the only shape check applied to Steadfast phone numbers.
const PhoneLength = 11

// bulkRequired are the keys every bulk entry must carry.
var bulkRequired = []string{"invoice", "recipient_name", "recipient_phone", "recipient_address", "cod_amount"}

// MapOrder converts a normalized order request into the Steadfast wire schema.
func MapOrder(req *courier.OrderRequest) OrderRequest {
	delivery := DeliveryStandard
	if req.Delivery == courier.DeliveryExpress {
		delivery = DeliveryExpress
	}
	return OrderRequest{
		Invoice:          strings.TrimSpace(req.MerchantOrderID),
		RecipientName:    strings.TrimSpace(req.Recipient.Name),
		RecipientPhone:   strings.TrimSpace(req.Recipient.Phone),
		AlternativePhone: strings.TrimSpace(req.Recipient.AltPhone),
		RecipientEmail:   strings.TrimSpace(req.Recipient.Email),
		RecipientAddress: strings.TrimSpace(req.Recipient.Address),
		CODAmount:        req.CollectAmount.InexactFloat64(),
		Note:             req.Instructions,
		ItemDescription:  req.Item.Description,
		TotalLot:         req.Item.Quantity,
		DeliveryType:     delivery,
	}
}

// Validate checks a mapped order before submission.
func Validate(o *OrderRequest) error {
	var errs courier.ValidationErrors
	validateInto(&errs, "", o)
	return errs.Err()
}

func validateInto(errs *courier.ValidationErrors, prefix string, o *OrderRequest) {
	if o.Invoice == "" {
		errs.Add(prefix+"invoice", "invoice is required")
	}
	if o.RecipientName == "" {
		errs.Add(prefix+"recipient_name", "recipient name is required")
	}
	if o.RecipientPhone == "" {
		errs.Add(prefix+"recipient_phone", "recipient phone is required")
	} else if utf8.RuneCountInString(o.RecipientPhone) != PhoneLength {
		errs.Add(prefix+"recipient_phone", fmt.Sprintf("phone must be exactly %d characters", PhoneLength))
	}
	if o.AlternativePhone != "" && utf8.RuneCountInString(o.AlternativePhone) != PhoneLength {
		errs.Add(prefix+"alternative_phone", fmt.Sprintf("phone must be exactly %d characters", PhoneLength))
	}
	if o.RecipientAddress == "" {
		errs.Add(prefix+"recipient_address", "recipient address is required")
	}
	if o.CODAmount < 0 {
		errs.Add(prefix+"cod_amount", "cod amount cannot be negative")
	}
	if o.DeliveryType != DeliveryStandard && o.DeliveryType != DeliveryExpress {
		errs.Add(prefix+"delivery_type", "delivery type must be 0 (standard) or 1 (express)")
	}
}

// ValidateBulk checks a batch before submission. Batches over MaxBulkOrders
// are rejected outright.
func ValidateBulk(orders []OrderRequest) error {
	if len(orders) == 0 {
		return courier.ValidationErrors{{Field: "orders", Message: "at least one order is required"}}
	}
	if len(orders) > MaxBulkOrders {
		return courier.NewCourierError(carrierName, "BATCH_TOO_LARGE",
			fmt.Sprintf("A batch can hold at most %d orders, got %d.", MaxBulkOrders, len(orders))).
			WithCause(courier.ErrBatchTooLarge)
	}

	var errs courier.ValidationErrors
	for i := range orders {
		validateInto(&errs, fmt.Sprintf("orders[%d].", i), &orders[i])
	}
	return errs.Err()
}

// ParseBulk decodes a JSON array of bulk entries and validates it. Missing
// required keys are reported per entry even when the decoded value would be
// a zero value.
func ParseBulk(data []byte) ([]OrderRequest, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, courier.ValidationErrors{{Field: "orders", Message: "bulk input must be a JSON array"}}
	}

	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, courier.ValidationErrors{{Field: "orders", Message: "invalid JSON: " + err.Error()}}
	}
	if len(entries) > MaxBulkOrders {
		return nil, ValidateBulk(make([]OrderRequest, len(entries)))
	}

	var errs courier.ValidationErrors
	orders := make([]OrderRequest, len(entries))
	for i, entry := range entries {
		prefix := fmt.Sprintf("orders[%d].", i)
		for _, key := range bulkRequired {
			if _, ok := entry[key]; !ok {
				errs.Add(prefix+key, "field is required")
			}
		}
		raw, _ := json.Marshal(entry)
		if err := json.Unmarshal(raw, &orders[i]); err != nil {
			errs.Add(prefix+"entry", "invalid entry: "+err.Error())
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if err := ValidateBulk(orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func mapStatus(status string) courier.ShipmentStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "pending", "in_review", "unknown_approval_pending":
		return courier.StatusPending
	case "delivered", "delivered_approval_pending":
		return courier.StatusDelivered
	case "partial_delivered", "partial_delivered_approval_pending":
		return courier.StatusPartialDelivered
	case "hold":
		return courier.StatusOnHold
	case "cancelled", "cancelled_approval_pending":
		return courier.StatusCancelled
	case "unknown":
		return courier.StatusException
	default:
		return courier.StatusPending
	}
}
