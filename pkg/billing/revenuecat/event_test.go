package revenuecat

import (
	"errors"
	"testing"

	"github.com/ladleapp/ladle-billing/pkg/billing"
)

func validBody() []byte {
	return []byte(`{
		"api_version": "1.0",
		"event": {
			"id": "evt_123",
			"type": "RENEWAL",
			"app_user_id": "app-user-1",
			"product_id": "ladle_pro_monthly",
			"transaction_id": "txn_1",
			"original_transaction_id": "txn_0",
			"expiration_at_ms": 1700000000000,
			"environment": "PRODUCTION",
			"subscriber_attributes": {
				"$email": {"value": "Cook@Example.com"}
			}
		}
	}`)
}

func TestDecodeEvent_Valid(t *testing.T) {
	event, err := DecodeEvent(validBody())
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if event.ID != "evt_123" {
		t.Errorf("ID = %q, want evt_123", event.ID)
	}
	if event.Type != EventRenewal {
		t.Errorf("Type = %q, want RENEWAL", event.Type)
	}
	if event.SubjectEmail != "Cook@Example.com" {
		t.Errorf("SubjectEmail = %q, want Cook@Example.com", event.SubjectEmail)
	}
	if event.ExpirationAtMs != 1700000000000 {
		t.Errorf("ExpirationAtMs = %d, want 1700000000000", event.ExpirationAtMs)
	}
	if event.Environment != EnvironmentProduction {
		t.Errorf("Environment = %q, want PRODUCTION", event.Environment)
	}
	if event.ProductID != "ladle_pro_monthly" {
		t.Errorf("ProductID = %q, want ladle_pro_monthly", event.ProductID)
	}
}

func TestDecodeEvent_MalformedJSON(t *testing.T) {
	for _, body := range []string{"", "{", "not json", `{"event":`} {
		if _, err := DecodeEvent([]byte(body)); !errors.Is(err, billing.ErrMalformedPayload) {
			t.Errorf("DecodeEvent(%q) error = %v, want ErrMalformedPayload", body, err)
		}
	}
}

func TestDecodeEvent_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"missing type", `{"event":{"id":"evt_1","subscriber_attributes":{"$email":{"value":"a@b.com"}}}}`},
		{"missing id", `{"event":{"type":"RENEWAL","subscriber_attributes":{"$email":{"value":"a@b.com"}}}}`},
		{"missing email attribute", `{"event":{"id":"evt_1","type":"RENEWAL"}}`},
		{"empty email value", `{"event":{"id":"evt_1","type":"RENEWAL","subscriber_attributes":{"$email":{"value":""}}}}`},
		{"other attributes only", `{"event":{"id":"evt_1","type":"RENEWAL","subscriber_attributes":{"$displayName":{"value":"Cook"}}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeEvent([]byte(tt.body)); !errors.Is(err, billing.ErrInvalidEventShape) {
				t.Errorf("DecodeEvent error = %v, want ErrInvalidEventShape", err)
			}
		})
	}
}

func TestDecodeEvent_WrongFieldType(t *testing.T) {
	body := `{"event":{"id":"evt_1","type":"RENEWAL","expiration_at_ms":"soon","subscriber_attributes":{"$email":{"value":"a@b.com"}}}}`
	if _, err := DecodeEvent([]byte(body)); !errors.Is(err, billing.ErrInvalidEventShape) {
		t.Errorf("DecodeEvent error = %v, want ErrInvalidEventShape", err)
	}
}

// The provider adds fields over time; decoding must not break on them.
func TestDecodeEvent_IgnoresUnknownFields(t *testing.T) {
	body := `{
		"api_version": "1.0",
		"brand_new_top_level": {"nested": true},
		"event": {
			"id": "evt_9",
			"type": "INITIAL_PURCHASE",
			"period_type": "NORMAL",
			"price_in_purchased_currency": 4.99,
			"subscriber_attributes": {"$email": {"value": "a@b.com", "updated_at_ms": 1}}
		}
	}`
	event, err := DecodeEvent([]byte(body))
	if err != nil {
		t.Fatalf("DecodeEvent failed on unknown fields: %v", err)
	}
	if event.Type != EventInitialPurchase {
		t.Errorf("Type = %q, want INITIAL_PURCHASE", event.Type)
	}
}
