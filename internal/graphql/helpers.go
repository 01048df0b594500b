package graphql

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tournevent/courier/internal/bulk"
	"github.com/tournevent/courier/internal/journal"
	"github.com/tournevent/courier/internal/orders"
	"github.com/tournevent/courier/pkg/courier"
)

// arguments are the evaluated arguments of a field.
type arguments map[string]any

func (a arguments) str(name string) string {
	switch v := a[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (a arguments) requiredString(name string) (string, error) {
	s := a.str(name)
	if s == "" {
		return "", missingArgument(name)
	}
	return s, nil
}

func (a arguments) integer(name string) (int, error) {
	switch v := a[name].(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, invalidArgument(name, "must be an integer")
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, invalidArgument(name, "must be an integer")
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, invalidArgument(name, "must be an integer")
		}
		return n, nil
	default:
		return 0, invalidArgument(name, "must be an integer")
	}
}

func (a arguments) stringList(name string) []string {
	items, _ := a[name].([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// decode converts an input object argument into out through its JSON form.
func (a arguments) decode(name string, out any) error {
	v, ok := a[name]
	if !ok || v == nil {
		return missingArgument(name)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return invalidArgument(name, err.Error())
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return invalidArgument(name, err.Error())
	}
	return nil
}

// raw returns an argument as JSON. A string argument is taken to already
// hold JSON.
func (a arguments) raw(name string) ([]byte, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return nil, missingArgument(name)
	}
	if s, ok := v.(string); ok {
		return []byte(s), nil
	}
	return json.Marshal(v)
}

func missingArgument(name string) error {
	return courier.ValidationErrors{{Field: name, Message: "argument is required"}}
}

func invalidArgument(name, msg string) error {
	return courier.ValidationErrors{{Field: name, Message: msg}}
}

// userMessage is the message shown for a field error.
func userMessage(err error) string {
	var verrs courier.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return verrs.Error()
	case errors.Is(err, courier.ErrCarrierNotFound),
		errors.Is(err, courier.ErrQuoteNotSupported),
		errors.Is(err, courier.ErrAreaNotFound),
		errors.Is(err, bulk.ErrUnsupported),
		errors.Is(err, journal.ErrEntryNotFound),
		errors.Is(err, ErrUnknownField),
		errors.Is(err, orders.ErrOrderNotFound):
		return err.Error()
	default:
		return courier.UserMessage(err)
	}
}

// errorExtensions carries the error code, provider detail, long-notice flag
// and field errors to clients.
func errorExtensions(err error) map[string]any {
	ext := map[string]any{"code": errorCode(err)}

	var courierErr *courier.CourierError
	if errors.As(err, &courierErr) {
		if courierErr.Carrier != "" {
			ext["carrier"] = courierErr.Carrier
		}
		if courierErr.Detail != "" {
			ext["detail"] = courierErr.Detail
		}
		if courierErr.LongNotice {
			ext["longNotice"] = true
		}
		if courierErr.Retryable {
			ext["retryable"] = true
		}
	}

	var verrs courier.ValidationErrors
	if errors.As(err, &verrs) {
		ext["fields"] = []courier.FieldError(verrs)
	}
	return ext
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, orders.ErrOrderNotFound):
		return "ORDER_NOT_FOUND"
	case errors.Is(err, journal.ErrEntryNotFound):
		return "NOT_FOUND"
	case errors.Is(err, bulk.ErrUnsupported):
		return "UNSUPPORTED"
	case errors.Is(err, ErrUnknownField):
		return "UNKNOWN_FIELD"
	default:
		return courier.ErrorCode(err)
	}
}

func parseAreaMode(s string) (string, error) {
	switch m := strings.ToLower(strings.TrimSpace(s)); m {
	case "", "all":
		return "all", nil
	case "postcode", "post_code":
		return "postcode", nil
	case "district":
		return "district", nil
	default:
		return "", invalidArgument("mode", "must be all, postcode or district")
	}
}
