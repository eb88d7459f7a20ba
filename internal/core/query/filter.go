package query

import (
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type Operator string

const (
	OpContains Operator = "contains"
	OpStarts   Operator = "starts"
	OpEnds     Operator = "ends"
	OpEq       Operator = "eq"
	OpNe       Operator = "ne"
	OpGe       Operator = "ge"
	OpGt       Operator = "gt"
	OpLe       Operator = "le"
	OpLt       Operator = "lt"
	OpIn       Operator = "in"
	OpIsNull   Operator = "is_null"
)

var operators = map[Operator]bool{
	OpContains: true, OpStarts: true, OpEnds: true,
	OpEq: true, OpNe: true,
	OpGe: true, OpGt: true, OpLe: true, OpLt: true,
	OpIn: true, OpIsNull: true,
}

// Parameters with a meaning of their own; never treated as filters.
var reservedParams = map[string]bool{
	"page": true, "page_size": true, "order_by": true, "order_dir": true,
}

// Condition is a single field test. Value holds a string or an int64
// matching Kind; Values holds the set for OpIn.
type Condition struct {
	Field  string
	Kind   FieldKind
	Op     Operator
	Value  any
	Values []any
}

type SkipReason string

const (
	SkipUnknownField    SkipReason = "unknown_field"
	SkipMalformed       SkipReason = "malformed"
	SkipUnknownOperator SkipReason = "unknown_operator"
	SkipNotInteger      SkipReason = "not_integer"
	SkipUnsupported     SkipReason = "unsupported_for_field"
)

type Skip struct {
	Field  string
	Raw    string
	Reason SkipReason
}

// TokenResult is the outcome of parsing one filter parameter: either a
// condition or the reason it was dropped.
type TokenResult struct {
	Condition Condition
	Skip      *Skip
}

func (r TokenResult) Ok() bool { return r.Skip == nil }

func skip(field, raw string, reason SkipReason) TokenResult {
	return TokenResult{Skip: &Skip{Field: field, Raw: raw, Reason: reason}}
}

// Predicate is a conjunction of conditions. When the entity has an owner
// field the ownership condition is always Conditions[0].
type Predicate struct {
	Conditions []Condition
	Skipped    []Skip
}

// Compile builds the predicate for params. Tokens that cannot be applied
// are dropped and listed in Skipped; Compile never fails.
func Compile(spec Spec, params Params, principal uuid.UUID) Predicate {
	var pred Predicate

	if spec.OwnerField != "" {
		pred.Conditions = append(pred.Conditions, Condition{
			Field: spec.OwnerField,
			Kind:  String,
			Op:    OpEq,
			Value: principal.String(),
		})
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		if !reservedParams[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, field := range keys {
		res := ParseToken(spec, field, params[field])
		if !res.Ok() {
			pred.Skipped = append(pred.Skipped, *res.Skip)
			continue
		}
		pred.Conditions = append(pred.Conditions, res.Condition)
	}
	return pred
}

// ParseToken parses a single "<value>:<operator>" parameter for field.
//
// ge, gt, le and lt compare integers and apply only to Int fields; on a
// String field they are skipped as unsupported. On an Int field a
// non-integer eq value, or in member, can never equal a stored value: eq
// compiles to an empty in set that matches no row, and in drops the member.
// A non-integer ne is skipped.
func ParseToken(spec Spec, field, raw string) TokenResult {
	kind, ok := spec.Filterable(field)
	if !ok {
		return skip(field, raw, SkipUnknownField)
	}

	idx := strings.LastIndex(raw, ":")
	if idx < 0 {
		return skip(field, raw, SkipMalformed)
	}
	value, op := raw[:idx], Operator(raw[idx+1:])
	if !operators[op] {
		return skip(field, raw, SkipUnknownOperator)
	}

	cond := Condition{Field: field, Kind: kind, Op: op}

	switch op {
	case OpIsNull:
		return TokenResult{Condition: cond}

	case OpContains, OpStarts, OpEnds:
		cond.Value = value
		return TokenResult{Condition: cond}

	case OpGe, OpGt, OpLe, OpLt:
		if kind != Int {
			return skip(field, raw, SkipUnsupported)
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return skip(field, raw, SkipNotInteger)
		}
		cond.Value = n
		return TokenResult{Condition: cond}

	case OpIn:
		parts := strings.Split(value, "|")
		cond.Values = make([]any, 0, len(parts))
		for _, part := range parts {
			if v, ok := nativeValue(kind, part); ok {
				cond.Values = append(cond.Values, v)
			}
		}
		return TokenResult{Condition: cond}

	case OpEq:
		v, ok := nativeValue(kind, value)
		if !ok {
			return TokenResult{Condition: matchNone(cond)}
		}
		cond.Value = v
		return TokenResult{Condition: cond}

	default: // OpNe
		v, ok := nativeValue(kind, value)
		if !ok {
			return skip(field, raw, SkipNotInteger)
		}
		cond.Value = v
		return TokenResult{Condition: cond}
	}
}

// matchNone turns cond into an empty in set.
func matchNone(cond Condition) Condition {
	cond.Op = OpIn
	cond.Values = []any{}
	return cond
}

func nativeValue(kind FieldKind, raw string) (any, bool) {
	if kind != Int {
		return raw, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, false
	}
	return n, true
}
