package api

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAccount(t *testing.T) {
	raw := json.RawMessage(`{
		"id": 1,
		"identifier": "1000",
		"description": "Above the line",
		"estimated": "1500.00",
		"actual": "1200.50",
		"subaccounts": [10, 11],
		"group": 4,
		"order": "n"
	}`)

	acct, err := DecodeAccount(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(1), acct.ID)
	assert.Equal(t, "1000", acct.Identifier)
	assert.True(t, decimal.NewFromInt(1500).Equal(acct.Estimated))
	assert.Equal(t, []int64{10, 11}, acct.Children)
	require.NotNil(t, acct.Group)
	assert.Equal(t, int64(4), *acct.Group)
}

func TestDecodeSubAccount(t *testing.T) {
	raw := json.RawMessage(`{
		"id": 10,
		"identifier": "1000-1",
		"quantity": "3",
		"rate": "125.5",
		"multiplier": null,
		"unit": "days",
		"estimated": "376.50",
		"actual": "0",
		"fringes": [2]
	}`)

	sub, err := DecodeSubAccount(raw)
	require.NoError(t, err)
	require.NotNil(t, sub.Quantity)
	assert.True(t, decimal.NewFromInt(3).Equal(*sub.Quantity))
	assert.Nil(t, sub.Multiplier)
	require.NotNil(t, sub.Unit)
	assert.Equal(t, "days", *sub.Unit)
	assert.Equal(t, []int64{2}, sub.Fringes)
}

func TestDecodeSubAccount_NumericDecimals(t *testing.T) {
	// Older server versions send numbers, not strings.
	raw := json.RawMessage(`{"id": 10, "rate": 125.5, "estimated": 0, "actual": 0}`)
	sub, err := DecodeSubAccount(raw)
	require.NoError(t, err)
	require.NotNil(t, sub.Rate)
	assert.True(t, decimal.NewFromFloat(125.5).Equal(*sub.Rate))
}

func TestDecodeGroups(t *testing.T) {
	raws := []json.RawMessage{
		json.RawMessage(`{"id": 4, "name": "Crew", "color": "#AD5096", "children": [1, 2]}`),
	}
	groups, err := DecodeGroups(raws)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Crew", groups[0].Name)
	assert.Equal(t, []int64{1, 2}, groups[0].Children)

	_, err = DecodeGroups([]json.RawMessage{json.RawMessage(`"nope"`)})
	assert.Error(t, err)
}

func TestDecodeFringe(t *testing.T) {
	raw := json.RawMessage(`{"id": 2, "name": "Payroll tax", "rate": "0.23", "unit": "percent", "cutoff": "10000"}`)
	fr, err := DecodeFringe(raw)
	require.NoError(t, err)
	require.NotNil(t, fr.Cutoff)
	assert.True(t, decimal.NewFromInt(10000).Equal(*fr.Cutoff))
}

func TestCreatedToken(t *testing.T) {
	token := uuid.New()
	raw := json.RawMessage(`{"id": 5, "token": "` + token.String() + `"}`)
	got, ok := CreatedToken(raw)
	require.True(t, ok)
	assert.Equal(t, token, got)

	_, ok = CreatedToken(json.RawMessage(`{"id": 5}`))
	assert.False(t, ok)

	_, ok = CreatedToken(json.RawMessage(`{"id": 5, "token": "garbage"}`))
	assert.False(t, ok)
}
