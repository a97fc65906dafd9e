package gemini

import (
	"fmt"
	"strings"

	"github.com/dvloznov/ledgerchat/internal/domain"
)

// transformModelOutputToDrafts converts the raw model output array into
// normalized draft transactions.
func transformModelOutputToDrafts(items []interface{}, rawInput string) ([]domain.DraftTransaction, error) {
	result := make([]domain.DraftTransaction, 0, len(items))

	for i, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("transaction %d: element is %T, want object", i, item)
		}

		// Required fields
		kindStr, err := getStringField(obj, "kind", true)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		kind, err := parseKind(kindStr)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		amount, err := getFloat64Field(obj, "amount", true)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		if amount <= 0 {
			return nil, fmt.Errorf("transaction %d: amount must be positive, got %v", i, amount)
		}
		currency, err := getStringField(obj, "currency", true)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		category, err := getStringField(obj, "category", true)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}

		// Optional fields
		subcategory, err := getOptionalStringField(obj, "subcategory")
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		paymentMethod, err := getOptionalStringField(obj, "payment_method")
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		creditSource, err := getOptionalStringField(obj, "credit_source")
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		description, err := getOptionalStringField(obj, "description")
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}

		d := domain.DraftTransaction{
			Kind:         kind,
			Amount:       amount,
			Currency:     strings.ToUpper(strings.TrimSpace(currency)),
			CategoryName: strings.TrimSpace(category),
			RawInput:     rawInput,
		}
		if subcategory != nil {
			d.SubcategoryName = *subcategory
		}
		if paymentMethod != nil {
			d.PaymentMethod = *paymentMethod
		}
		if creditSource != nil {
			d.CreditSource = *creditSource
		}
		if description != nil {
			d.Description = *description
		}

		result = append(result, d)
	}

	return result, nil
}

func parseKind(s string) (domain.TransactionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expense":
		return domain.KindExpense, nil
	case "income":
		return domain.KindIncome, nil
	default:
		return "", fmt.Errorf("field %q has value %q, want \"expense\" or \"income\"", "kind", s)
	}
}

func getStringField(m map[string]interface{}, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok {
		if required {
			return "", fmt.Errorf("missing required field %q", key)
		}
		return "", nil
	}
	switch val := v.(type) {
	case string:
		if required && strings.TrimSpace(val) == "" {
			return "", fmt.Errorf("required field %q is empty", key)
		}
		return val, nil
	default:
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
}

func getOptionalStringField(m map[string]interface{}, key string) (*string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil, nil
		}
		return &s, nil
	default:
		return nil, fmt.Errorf("field %q has type %T, want string or null", key, v)
	}
}

func getFloat64Field(m map[string]interface{}, key string, required bool) (float64, error) {
	v, ok := m[key]
	if !ok {
		if required {
			return 0, fmt.Errorf("missing required field %q", key)
		}
		return 0, nil
	}
	switch val := v.(type) {
	case float64:
		return val, nil
	case int: // unlikely from encoding/json, but harmless to support
		return float64(val), nil
	default:
		return 0, fmt.Errorf("field %q has type %T, want number", key, v)
	}
}
