package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PaymentResult records what the processor reported for an order.
type PaymentResult struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	EmailAddress string `json:"email_address"`
	PricePaid    string `json:"pricePaid"`
}

func (p *PaymentResult) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	buf, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("payment result: %w", err)
	}
	return string(buf), nil
}

func (p *PaymentResult) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentResult{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return fmt.Errorf("payment result: %w", err)
	}
	return json.Unmarshal(raw, p)
}
