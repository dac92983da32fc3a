package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"bizledger/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags of in and reports every failing field
// in one ValidationError.
func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.KindValidation, "invalid request", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperr.New(apperr.KindValidation, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "email":
		return field + " must be a valid email"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// normalizePhone parses phone in the default region and formats it E.164.
// An empty phone stays empty.
func normalizePhone(phone, region string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}
	p, err := libphonenumber.Parse(phone, region)
	if err != nil {
		return "", apperr.Validation("phone %q is not a valid number", phone)
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", apperr.Validation("phone %q is not a valid number", phone)
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

// line is the arithmetic part of a document line.
type line struct {
	qty, price, amount decimal.Decimal
}

// checkLines verifies qty * price = amount per line, filling a missing
// amount, and returns the sum.
func checkLines(lines []line) (decimal.Decimal, []decimal.Decimal, error) {
	sum := decimal.Zero
	amounts := make([]decimal.Decimal, len(lines))
	for i, l := range lines {
		if !l.qty.IsPositive() {
			return decimal.Zero, nil, apperr.Validation("items[%d].qty must be greater than 0", i)
		}
		if l.price.IsNegative() {
			return decimal.Zero, nil, apperr.Validation("items[%d].price must not be negative", i)
		}
		want := l.qty.Mul(l.price)
		amount := l.amount
		if amount.IsZero() {
			amount = want
		}
		if !amount.Equal(want) {
			return decimal.Zero, nil, apperr.Validation("items[%d].amount %s does not equal qty x price %s", i, amount.String(), want.String())
		}
		amounts[i] = amount
		sum = sum.Add(amount)
	}
	return sum, amounts, nil
}

// checkTotals enforces 0 <= paid <= total and balanceDue = total - paid. A
// supplied balanceDue must match.
func checkTotals(total, paid decimal.Decimal, balanceDue *decimal.Decimal) (decimal.Decimal, error) {
	if paid.IsNegative() {
		return decimal.Zero, apperr.Validation("paidAmount must not be negative")
	}
	if paid.GreaterThan(total) {
		return decimal.Zero, apperr.Validation("paidAmount %s exceeds total %s", paid.String(), total.String())
	}
	due := total.Sub(paid)
	if balanceDue != nil && !balanceDue.Equal(due) {
		return decimal.Zero, apperr.Validation("balanceDue %s must equal total - paidAmount (%s)", balanceDue.String(), due.String())
	}
	return due, nil
}
