package helpers

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTokenRoundTrip(t *testing.T) {
	h := NewTokenHelper("secret", time.Hour)

	signed, err := h.GenerateToken("an@pos.local", "An", "u-1", RoleWaiter)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := h.ValidateToken(signed)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Uid != "u-1" || claims.UserRole != RoleWaiter || claims.Email != "an@pos.local" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	good := NewTokenHelper("secret", time.Hour)
	signed, err := good.GenerateToken("an@pos.local", "An", "u-1", RoleMerchant)
	if err != nil {
		t.Fatal(err)
	}
	expired, err := NewTokenHelper("secret", time.Nanosecond).GenerateToken("an@pos.local", "An", "u-1", RoleMerchant)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(1100 * time.Millisecond)

	tests := []struct {
		name   string
		helper *TokenHelper
		token  string
	}{
		{"wrong secret", NewTokenHelper("other", time.Hour), signed},
		{"garbage", good, "not-a-token"},
		{"expired", good, expired},
		{"no secret configured", NewTokenHelper("", time.Hour), signed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.helper.ValidateToken(tt.token); err == nil {
				t.Fatal("token accepted")
			}
		})
	}
}

type itemBody struct {
	MenuItemID string `json:"menu_item_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"gt=0"`
}

type orderBody struct {
	TableID string     `json:"table_id" validate:"required"`
	Items   []itemBody `json:"items" validate:"required,min=1,dive"`
}

func TestValidate(t *testing.T) {
	ok := orderBody{TableID: "t", Items: []itemBody{{MenuItemID: "m", Quantity: 1}}}
	if err := Validate(ok); err != nil {
		t.Fatalf("valid body rejected: %v", err)
	}

	err := Validate(orderBody{Items: []itemBody{{Quantity: 0}}})
	if err == nil {
		t.Fatal("invalid body accepted")
	}
	for _, want := range []string{"table_id is required", "menu_item_id is required", "quantity must satisfy gt=0"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %q", err, want)
		}
	}
}

type stockBody struct {
	Quantity  decimal.Decimal  `json:"quantity" validate:"gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"omitempty,gte=0"`
}

func TestValidateDecimals(t *testing.T) {
	price := decimal.RequireFromString("12.5")
	negative := decimal.RequireFromString("-0.01")

	tests := []struct {
		name string
		body stockBody
		want string
	}{
		{"fractional quantity", stockBody{Quantity: decimal.RequireFromString("0.1"), UnitPrice: &price}, ""},
		{"zero quantity", stockBody{}, "quantity must satisfy gt=0"},
		{"negative price", stockBody{Quantity: decimal.NewFromInt(1), UnitPrice: &negative}, "unit_price must satisfy gte=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.body)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("rejected: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}
