package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestIsTrusted(t *testing.T) {
	c := NewChecker([]string{" Bank.Example ", "*.corp.example", ""}, zap.NewNop())

	tests := []struct {
		address string
		want    bool
	}{
		{"alerts@bank.example", true},
		{"ALERTS@BANK.EXAMPLE", true},
		{`"Bank" <alerts@bank.example>`, true},
		{"x@mail.bank.example", true},
		{"x@hr.corp.example", true},
		{"x@corp.example", true},
		{"x@evilbank.example", false},
		{"x@bank.example.evil", false},
		{"not-an-address", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsTrusted(tt.address))
		})
	}
}

func TestIsTrusted_EmptyList(t *testing.T) {
	c := NewChecker(nil, zap.NewNop())
	assert.False(t, c.IsTrusted("a@bank.example"))
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "b.example", Domain("a@B.Example"))
	assert.Equal(t, "b.example", Domain("Someone <a@b.example>"))
	assert.Equal(t, "", Domain("a@"))
	assert.Equal(t, "", Domain("nobody"))
}
