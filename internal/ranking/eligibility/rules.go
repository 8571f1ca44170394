// Package eligibility scores and validates a citizen profile against scheme eligibility rules.
package eligibility

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"scheme-workers/internal/models"
)

var errUndecodable = errors.New("stored rules are not a JSON object")

// Rule keys recognised in SchemeRecord.EligibilityRules. Other keys are ignored.
const (
	KeyLandholding   = "landholding"
	KeyOccupation    = "occupation"
	KeyLocationType  = "location_type"
	KeyAgeMin        = "age_min"
	KeyAgeMax        = "age_max"
	KeyGender        = "gender"
	KeyIncomeMax     = "income_max"
	KeyFamilySizeMin = "family_size_min"
	KeyFamilySizeMax = "family_size_max"
	KeyLoanMin       = "loan_min"
	KeyLoanMax       = "loan_max"
)

// Bound is a one-sided numeric constraint such as "<2" or ">=1.5".
type Bound struct {
	Op    string  `json:"op"`
	Value float64 `json:"value"`
}

// Satisfied reports whether v meets the bound.
func (b Bound) Satisfied(v float64) bool {
	switch b.Op {
	case "<":
		return v < b.Value
	case "<=":
		return v <= b.Value
	case ">":
		return v > b.Value
	case ">=":
		return v >= b.Value
	default:
		return false
	}
}

func (b Bound) String() string {
	return b.Op + strconv.FormatFloat(b.Value, 'f', -1, 64)
}

// Rules is the typed form of a scheme's eligibility mapping. Nil or empty fields carry no constraint.
type Rules struct {
	Landholding   *Bound
	Occupations   []string
	LocationType  string
	AgeMin        *float64
	AgeMax        *float64
	Gender        string
	IncomeMax     *float64
	FamilySizeMin *float64
	FamilySizeMax *float64
	LoanMin       *float64
	LoanMax       *float64
}

// IsEmpty reports whether no rule is defined.
func (r Rules) IsEmpty() bool {
	return r.Landholding == nil && len(r.Occupations) == 0 && r.LocationType == "" &&
		r.AgeMin == nil && r.AgeMax == nil && r.Gender == "" && r.IncomeMax == nil &&
		r.FamilySizeMin == nil && r.FamilySizeMax == nil && r.LoanMin == nil && r.LoanMax == nil
}

// MalformedRuleError names the rule key whose value could not be interpreted.
type MalformedRuleError struct {
	Key   string
	Value interface{}
	Err   error
}

func (e *MalformedRuleError) Error() string {
	return fmt.Sprintf("malformed eligibility rule %q (%v): %v", e.Key, e.Value, e.Err)
}

func (e *MalformedRuleError) Unwrap() error {
	return e.Err
}

// ParseRules converts the raw rule mapping. A value of the wrong type fails the whole set.
func ParseRules(raw map[string]interface{}) (Rules, error) {
	if v, ok := raw[models.UndecodableRulesKey]; ok {
		return Rules{}, &MalformedRuleError{Key: models.UndecodableRulesKey, Value: v, Err: errUndecodable}
	}
	var r Rules
	for key, val := range raw {
		if val == nil {
			continue
		}
		var err error
		switch key {
		case KeyLandholding:
			r.Landholding, err = parseBound(val)
		case KeyOccupation:
			r.Occupations, err = parseStrings(val)
		case KeyLocationType:
			r.LocationType, err = parseString(val)
		case KeyGender:
			r.Gender, err = parseString(val)
		case KeyAgeMin:
			r.AgeMin, err = parseNumber(val)
		case KeyAgeMax:
			r.AgeMax, err = parseNumber(val)
		case KeyIncomeMax:
			r.IncomeMax, err = parseNumber(val)
		case KeyFamilySizeMin:
			r.FamilySizeMin, err = parseNumber(val)
		case KeyFamilySizeMax:
			r.FamilySizeMax, err = parseNumber(val)
		case KeyLoanMin:
			r.LoanMin, err = parseNumber(val)
		case KeyLoanMax:
			r.LoanMax, err = parseNumber(val)
		}
		if err != nil {
			return Rules{}, &MalformedRuleError{Key: key, Value: val, Err: err}
		}
	}
	return r, nil
}

func parseNumber(v interface{}) (*float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil, err
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil, fmt.Errorf("not a number")
		}
		f = parsed
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
	return &f, nil
}

func parseString(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return strings.ToLower(strings.TrimSpace(s)), nil
}

// parseStrings accepts a single string or a list of strings.
func parseStrings(v interface{}) ([]string, error) {
	switch s := v.(type) {
	case string:
		if t := strings.ToLower(strings.TrimSpace(s)); t != "" {
			return []string{t}, nil
		}
		return nil, nil
	case []string:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if t := strings.ToLower(strings.TrimSpace(item)); t != "" {
				out = append(out, t)
			}
		}
		return out, nil
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected list of strings, found %T", item)
			}
			if t := strings.ToLower(strings.TrimSpace(str)); t != "" {
				out = append(out, t)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

// parseBound reads "<X", "<=X", ">X" or ">=X", with an optional hectare unit.
func parseBound(v interface{}) (*Bound, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected bound string, got %T", v)
	}
	s = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))

	var op string
	for _, candidate := range []string{"<=", ">=", "<", ">"} {
		if strings.HasPrefix(s, candidate) {
			op = candidate
			break
		}
	}
	if op == "" {
		return nil, fmt.Errorf("bound must start with <, <=, > or >=")
	}

	num := strings.TrimPrefix(s, op)
	for _, unit := range []string{"hectares", "hectare", "ha"} {
		num = strings.TrimSuffix(num, unit)
	}
	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return nil, fmt.Errorf("bound value is not a number")
	}
	return &Bound{Op: op, Value: value}, nil
}
