package teamaccess

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

var operatorReplacer = strings.NewReplacer(
	" ", "",
	"\t", "",
	"x", "×",
	"X", "×",
	"*", "×",
	"/", "÷",
)

// Normalize puts a calculator entry into canonical form so "9426 + 777 =" and
// "9426+777" compare equal.
func Normalize(op string) string {
	op = strings.TrimSpace(op)
	op = strings.TrimRight(op, "= ")
	return operatorReplacer.Replace(op)
}

// Evaluate computes "a op b" for the four calculator operators.
func Evaluate(op string) (float64, error) {
	expr := Normalize(op)
	idx := strings.IndexAny(expr, "+-×÷")
	if idx < 0 {
		return 0, ErrInvalidOperation
	}
	operator, size := utf8.DecodeRuneInString(expr[idx:])

	a, err := parseOperand(expr[:idx])
	if err != nil {
		return 0, err
	}
	b, err := parseOperand(expr[idx+size:])
	if err != nil {
		return 0, err
	}

	switch operator {
	case '+':
		return a + b, nil
	case '-':
		return a - b, nil
	case '×':
		return a * b, nil
	default:
		if b == 0 {
			return 0, ErrInvalidOperation
		}
		return math.Round(a/b*1e6) / 1e6, nil
	}
}

func parseOperand(s string) (float64, error) {
	if s == "" {
		return 0, ErrInvalidOperation
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrInvalidOperation
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidOperation
	}
	return v, nil
}
