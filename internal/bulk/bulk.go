// Package bulk builds bulk-entry templates and parses filled-in bulk files
// into courier requests without touching the network.
package bulk

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tournevent/courier/pkg/courier"
	"github.com/tournevent/courier/pkg/courier/pathao"
	"github.com/tournevent/courier/pkg/courier/steadfast"
)

// Format is a bulk file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ErrUnsupported is returned for providers or formats without bulk support.
var ErrUnsupported = errors.New("bulk entry not supported")

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: format %q", ErrUnsupported, s)
	}
}

// ContentType returns the MIME type for a format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json"
}

type column struct {
	name   string
	kind   kind
	sample string
}

type kind int

const (
	kindString kind = iota
	kindInt
	kindNumber
)

var steadfastColumns = []column{
	{"invoice", kindString, "INV-1024"},
	{"recipient_name", kindString, "Rahim Uddin"},
	{"recipient_phone", kindString, "01712345678"},
	{"alternative_phone", kindString, ""},
	{"recipient_email", kindString, ""},
	{"recipient_address", kindString, "House 12, Road 5, Dhanmondi, Dhaka"},
	{"cod_amount", kindNumber, "1500"},
	{"note", kindString, "Call before delivery"},
	{"item_description", kindString, "T-Shirt"},
	{"total_lot", kindInt, "1"},
	{"delivery_type", kindInt, "0"},
}

var pathaoColumns = []column{
	{"store_id", kindInt, "1"},
	{"merchant_order_id", kindString, "1024"},
	{"recipient_name", kindString, "Rahim Uddin"},
	{"recipient_phone", kindString, "01712345678"},
	{"recipient_address", kindString, "House 12, Road 5, Dhanmondi, Dhaka"},
	{"recipient_city", kindInt, "1"},
	{"recipient_zone", kindInt, "1"},
	{"recipient_area", kindInt, ""},
	{"delivery_type", kindInt, strconv.Itoa(pathao.DeliveryNormal)},
	{"item_type", kindInt, strconv.Itoa(pathao.ItemParcel)},
	{"special_instruction", kindString, ""},
	{"item_quantity", kindInt, "1"},
	{"item_weight", kindNumber, "0.5"},
	{"amount_to_collect", kindInt, "1500"},
	{"item_description", kindString, "T-Shirt"},
}

func columnsFor(provider string) ([]column, error) {
	switch provider {
	case "steadfast":
		return steadfastColumns, nil
	case "pathao":
		return pathaoColumns, nil
	default:
		return nil, fmt.Errorf("%w: provider %q", ErrUnsupported, provider)
	}
}

// Template returns a bulk-entry template with one sample row.
func Template(provider string, format Format) ([]byte, error) {
	cols, err := columnsFor(provider)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatCSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		header := make([]string, len(cols))
		sample := make([]string, len(cols))
		for i, c := range cols {
			header[i] = c.name
			sample[i] = c.sample
		}
		_ = w.Write(header)
		_ = w.Write(sample)
		w.Flush()
		return buf.Bytes(), w.Error()
	case FormatJSON:
		row := make(map[string]any, len(cols))
		for _, c := range cols {
			v, err := c.value(c.sample)
			if err != nil {
				return nil, err
			}
			row[c.name] = v
		}
		return json.MarshalIndent([]map[string]any{row}, "", "  ")
	default:
		return nil, fmt.Errorf("%w: format %q", ErrUnsupported, format)
	}
}

func (c column) value(s string) (any, error) {
	switch c.kind {
	case kindInt:
		if s == "" {
			return 0, nil
		}
		return strconv.ParseInt(s, 10, 64)
	case kindNumber:
		if s == "" {
			return 0, nil
		}
		return strconv.ParseFloat(s, 64)
	default:
		return s, nil
	}
}

// toJSON turns a bulk file into a JSON array. JSON input passes through;
// anything else is read as CSV with a header row. Empty cells are left out
// so required-field checks see them as missing.
func toJSON(provider string, data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return trimmed, nil
	}

	cols, err := columnsFor(provider)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]column, len(cols))
	for _, c := range cols {
		byName[c.name] = c
	}

	r := csv.NewReader(bytes.NewReader(trimmed))
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return nil, courier.ValidationErrors{{Field: "orders", Message: "missing CSV header"}}
	}

	var errs courier.ValidationErrors
	rows := []map[string]any{}
	for i := 0; ; i++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, courier.ValidationErrors{{Field: "orders", Message: "invalid CSV: " + err.Error()}}
		}

		row := make(map[string]any, len(header))
		for j, name := range header {
			name = strings.TrimSpace(name)
			cell := strings.TrimSpace(record[j])
			if cell == "" {
				continue
			}
			c, ok := byName[name]
			if !ok {
				c = column{name: name}
			}
			v, err := c.value(cell)
			if err != nil {
				errs.Add(fmt.Sprintf("orders[%d].%s", i, name), "must be a number")
				continue
			}
			row[name] = v
		}
		rows = append(rows, row)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return json.Marshal(rows)
}

// ParseSteadfast parses and validates a Steadfast bulk file.
func ParseSteadfast(data []byte) ([]steadfast.OrderRequest, error) {
	raw, err := toJSON("steadfast", data)
	if err != nil {
		return nil, err
	}
	return steadfast.ParseBulk(raw)
}

// ParsePathao parses and validates a Pathao bulk file.
func ParsePathao(data []byte) ([]*courier.OrderRequest, error) {
	raw, err := toJSON("pathao", data)
	if err != nil {
		return nil, err
	}

	var rows []pathao.CreateOrderRequest
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, courier.ValidationErrors{{Field: "orders", Message: "bulk input must be a JSON array: " + err.Error()}}
	}
	if len(rows) == 0 {
		return nil, courier.ValidationErrors{{Field: "orders", Message: "at least one order is required"}}
	}

	var errs courier.ValidationErrors
	reqs := make([]*courier.OrderRequest, len(rows))
	for i := range rows {
		if err := pathao.Validate(&rows[i]); err != nil {
			var fields courier.ValidationErrors
			errors.As(err, &fields)
			for _, fe := range fields {
				errs.Add(fmt.Sprintf("orders[%d].%s", i, fe.Field), fe.Message)
			}
		}
		reqs[i] = fromPathao(&rows[i])
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return reqs, nil
}

func fromPathao(o *pathao.CreateOrderRequest) *courier.OrderRequest {
	req := &courier.OrderRequest{
		MerchantOrderID: o.MerchantOrderID,
		StoreID:         strconv.Itoa(o.StoreID),
		Recipient: courier.Recipient{
			Name:    o.RecipientName,
			Phone:   o.RecipientPhone,
			Address: o.RecipientAddress,
		},
		Location: courier.Location{CityID: o.RecipientCity, ZoneID: o.RecipientZone, AreaID: o.RecipientArea},
		Item: courier.Item{
			Type:        courier.ItemParcel,
			Quantity:    o.ItemQuantity,
			WeightKG:    o.ItemWeight,
			Description: o.ItemDescription,
		},
		CollectAmount: decimal.NewFromInt(o.AmountToCollect),
		Delivery:      courier.DeliveryStandard,
		Instructions:  o.SpecialInstruction,
	}
	if o.ItemType == pathao.ItemDocument {
		req.Item.Type = courier.ItemDocument
	}
	if o.DeliveryType == pathao.DeliveryOnDemand {
		req.Delivery = courier.DeliveryExpress
	}
	return req
}
