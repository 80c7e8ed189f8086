package notifications

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

const (
	EventOrderPlaced = "order_placed"
	OrderTag         = "new-order"
	DefaultAdminURL  = "/admin/mobile"
)

// FlexString accepts a JSON string or number.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

type CustomerInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// OrderPlaced is the storefront's order webhook body.
type OrderPlaced struct {
	ID           FlexString   `json:"id"`
	OrderNumber  FlexString   `json:"orderNumber"`
	CustomerName string       `json:"customerName"`
	CustomerInfo CustomerInfo `json:"customerInfo"`
	Total        *float64     `json:"total"`
}

func (o OrderPlaced) number() string {
	if n := strings.TrimSpace(string(o.OrderNumber)); n != "" {
		return n
	}
	return strings.TrimSpace(string(o.ID))
}

func (o OrderPlaced) customer() string {
	if n := strings.TrimSpace(o.CustomerName); n != "" {
		return n
	}
	return strings.TrimSpace(o.CustomerInfo.FirstName + " " + o.CustomerInfo.LastName)
}

// RawEvent normalizes the order into an order_placed event pointing at
// adminURL. Missing order number or customer name leaves the matching fields
// empty so that validation rejects it.
func (o OrderPlaced) RawEvent(adminURL string) RawEvent {
	if adminURL == "" {
		adminURL = DefaultAdminURL
	}
	number := o.number()
	name := o.customer()

	amount := FormatAmount(o.Total)
	total := ""
	if o.Total != nil {
		total = strconv.FormatFloat(*o.Total, 'f', -1, 64)
	}

	raw := RawEvent{
		Type:       EventOrderPlaced,
		BusinessID: number,
		Tag:        OrderTag,
		URL:        adminURL,
		Data: map[string]string{
			"orderId":      string(o.ID),
			"orderNumber":  number,
			"customerName": name,
			"total":        total,
			"url":          adminURL,
		},
	}
	if number != "" {
		raw.Title = "New Order #" + number
	}
	if name != "" {
		raw.Body = name + " placed an order for " + amount
	}
	return raw
}

// FormatAmount renders an order total for notification bodies, e.g.
// "PKR 3499.5". A missing total reads "unknown amount".
func FormatAmount(total *float64) string {
	if total == nil {
		return "unknown amount"
	}
	return "PKR " + strconv.FormatFloat(*total, 'f', -1, 64)
}
