package api

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alexanderramin/oikos/internal/domain"
)

// Wire shapes mirror the server's JSON. Decimal fields decode from either
// JSON numbers or strings; the server sends strings to avoid float drift.

type accountWire struct {
	ID          int64           `json:"id"`
	Identifier  string          `json:"identifier"`
	Description string          `json:"description"`
	Estimated   decimal.Decimal `json:"estimated"`
	Actual      decimal.Decimal `json:"actual"`
	SubAccounts []int64         `json:"subaccounts"`
	Group       *int64          `json:"group"`
	Order       string          `json:"order"`
}

type subAccountWire struct {
	ID          int64            `json:"id"`
	Identifier  string           `json:"identifier"`
	Description string           `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity"`
	Rate        *decimal.Decimal `json:"rate"`
	Multiplier  *decimal.Decimal `json:"multiplier"`
	Unit        *string          `json:"unit"`
	Estimated   decimal.Decimal  `json:"estimated"`
	Actual      decimal.Decimal  `json:"actual"`
	Fringes     []int64          `json:"fringes"`
	Children    []int64          `json:"children"`
	Group       *int64           `json:"group"`
	Order       string           `json:"order"`
}

type groupWire struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Color    string  `json:"color"`
	Children []int64 `json:"children"`
}

type markupWire struct {
	ID          int64           `json:"id"`
	Identifier  string          `json:"identifier"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Rate        decimal.Decimal `json:"rate"`
	Children    []int64         `json:"children"`
}

type fringeWire struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Rate        decimal.Decimal  `json:"rate"`
	Unit        string           `json:"unit"`
	Cutoff      *decimal.Decimal `json:"cutoff"`
	Color       string           `json:"color"`
}

type budgetWire struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Domain    string          `json:"domain"`
	Estimated decimal.Decimal `json:"estimated"`
	Actual    decimal.Decimal `json:"actual"`
}

// DecodeAccount converts one wire model into a domain account.
func DecodeAccount(raw json.RawMessage) (*domain.Account, error) {
	var w accountWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decoding account: %w", err)
	}
	return &domain.Account{
		ID:          w.ID,
		Identifier:  w.Identifier,
		Description: w.Description,
		Estimated:   w.Estimated,
		Actual:      w.Actual,
		Children:    w.SubAccounts,
		Group:       w.Group,
		Order:       w.Order,
	}, nil
}

// DecodeSubAccount converts one wire model into a domain sub-account.
func DecodeSubAccount(raw json.RawMessage) (*domain.SubAccount, error) {
	var w subAccountWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decoding subaccount: %w", err)
	}
	return &domain.SubAccount{
		ID:          w.ID,
		Identifier:  w.Identifier,
		Description: w.Description,
		Quantity:    w.Quantity,
		Rate:        w.Rate,
		Multiplier:  w.Multiplier,
		Unit:        w.Unit,
		Estimated:   w.Estimated,
		Actual:      w.Actual,
		Fringes:     w.Fringes,
		Children:    w.Children,
		Group:       w.Group,
		Order:       w.Order,
	}, nil
}

// DecodeGroup converts one wire model into a domain group.
func DecodeGroup(raw json.RawMessage) (*domain.Group, error) {
	var w groupWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decoding group: %w", err)
	}
	return &domain.Group{
		ID:       w.ID,
		Name:     w.Name,
		Color:    w.Color,
		Children: w.Children,
	}, nil
}

// DecodeMarkup converts one wire model into a domain markup.
func DecodeMarkup(raw json.RawMessage) (*domain.Markup, error) {
	var w markupWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decoding markup: %w", err)
	}
	return &domain.Markup{
		ID:          w.ID,
		Identifier:  w.Identifier,
		Description: w.Description,
		Unit:        domain.MarkupUnit(w.Unit),
		Rate:        w.Rate,
		Children:    w.Children,
	}, nil
}

// DecodeFringe converts one wire model into a domain fringe.
func DecodeFringe(raw json.RawMessage) (*domain.Fringe, error) {
	var w fringeWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decoding fringe: %w", err)
	}
	return &domain.Fringe{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Rate:        w.Rate,
		Unit:        domain.FringeUnit(w.Unit),
		Cutoff:      w.Cutoff,
		Color:       w.Color,
	}, nil
}

// DecodeBudget converts one wire model into a domain budget.
func DecodeBudget(raw json.RawMessage) (*domain.Budget, error) {
	var w budgetWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decoding budget: %w", err)
	}
	return &domain.Budget{
		ID:        w.ID,
		Name:      w.Name,
		Domain:    domain.BudgetDomain(w.Domain),
		Estimated: w.Estimated,
		Actual:    w.Actual,
	}, nil
}

// DecodeGroups converts a wire array into domain groups, preserving order.
func DecodeGroups(raws []json.RawMessage) ([]domain.Group, error) {
	out := make([]domain.Group, 0, len(raws))
	for _, raw := range raws {
		g, err := DecodeGroup(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, nil
}

// CreatedToken extracts the client correlation token echoed on a created
// model, reporting false when the server sent none.
func CreatedToken(raw json.RawMessage) (uuid.UUID, bool) {
	var w struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &w); err != nil || w.Token == "" {
		return uuid.Nil, false
	}
	token, err := uuid.Parse(w.Token)
	if err != nil {
		return uuid.Nil, false
	}
	return token, true
}
