package teamaccess_test

import (
	"testing"

	"storefront/internal/teamaccess"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"9426+777=":      "9426+777",
		" 9426 + 777 = ": "9426+777",
		"12x3":           "12×3",
		"12*3=":          "12×3",
		"12 / 4":         "12÷4",
		"12÷4=":          "12÷4",
	}
	for in, want := range cases {
		assert.Equal(t, want, teamaccess.Normalize(in), in)
	}
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		op   string
		want float64
	}{
		{"9426+777=", 10203},
		{"50-80", -30},
		{"12 x 3", 36},
		{"10/4=", 2.5},
		{"9÷3", 3},
	}
	for _, tc := range cases {
		got, err := teamaccess.Evaluate(tc.op)
		require.NoError(t, err, tc.op)
		assert.Equal(t, tc.want, got, tc.op)
	}
}

func TestEvaluateRejectsMalformed(t *testing.T) {
	for _, op := range []string{"", "=", "12", "+3", "12+", "1.5+2", "abc+1", "4/0"} {
		_, err := teamaccess.Evaluate(op)
		assert.ErrorIs(t, err, teamaccess.ErrInvalidOperation, op)
	}
}
