package invoicing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteStatus_CanTransitionTo(t *testing.T) {
	allowed := map[QuoteStatus][]QuoteStatus{
		QuoteStatusDraft:    {QuoteStatusSent, QuoteStatusConverted},
		QuoteStatusSent:     {QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusExpired, QuoteStatusConverted},
		QuoteStatusAccepted: {QuoteStatusConverted},
		QuoteStatusRejected: {QuoteStatusConverted},
		QuoteStatusExpired:  {QuoteStatusConverted},
	}

	for _, from := range AllQuoteStatuses {
		for _, to := range AllQuoteStatuses {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestQuoteStatus_IsTerminal(t *testing.T) {
	assert.False(t, QuoteStatusDraft.IsTerminal())
	assert.False(t, QuoteStatusSent.IsTerminal())
	assert.False(t, QuoteStatusAccepted.IsTerminal())
	assert.False(t, QuoteStatusRejected.IsTerminal())
	assert.False(t, QuoteStatusExpired.IsTerminal())
	assert.True(t, QuoteStatusConverted.IsTerminal())
}

func TestInvoiceStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from InvoiceStatus
		to   InvoiceStatus
		want bool
	}{
		{InvoiceStatusDraft, InvoiceStatusSent, true},
		{InvoiceStatusDraft, InvoiceStatusOverdue, true},
		{InvoiceStatusDraft, InvoiceStatusCancelled, true},
		{InvoiceStatusDraft, InvoiceStatusPaid, false},
		{InvoiceStatusSent, InvoiceStatusPaid, true},
		{InvoiceStatusSent, InvoiceStatusOverdue, true},
		{InvoiceStatusSent, InvoiceStatusCancelled, true},
		{InvoiceStatusSent, InvoiceStatusDraft, false},
		{InvoiceStatusOverdue, InvoiceStatusPaid, true},
		{InvoiceStatusOverdue, InvoiceStatusCancelled, true},
		{InvoiceStatusOverdue, InvoiceStatusSent, false},
		{InvoiceStatusPaid, InvoiceStatusCancelled, false},
		{InvoiceStatusPaid, InvoiceStatusSent, false},
		{InvoiceStatusCancelled, InvoiceStatusDraft, false},
		{InvoiceStatusCancelled, InvoiceStatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestParseStatus(t *testing.T) {
	q, err := ParseQuoteStatus("accepted")
	require.NoError(t, err)
	assert.Equal(t, QuoteStatusAccepted, q)

	_, err = ParseQuoteStatus("approved")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown quote status")

	i, err := ParseInvoiceStatus("overdue")
	require.NoError(t, err)
	assert.Equal(t, InvoiceStatusOverdue, i)

	_, err = ParseInvoiceStatus("void")
	require.Error(t, err)
}

func TestAllowedTransitions_ReturnsCopy(t *testing.T) {
	next := QuoteStatusSent.AllowedTransitions()
	require.NotEmpty(t, next)
	next[0] = QuoteStatusDraft

	assert.Equal(t, QuoteStatusAccepted, QuoteStatusSent.AllowedTransitions()[0])
	assert.Empty(t, InvoiceStatusPaid.AllowedTransitions())
}
