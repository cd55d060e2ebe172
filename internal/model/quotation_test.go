package model

import "testing"

func TestQuotationRequestIsTerminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{QuotationStatusDraft, false},
		{QuotationStatusSent, false},
		{QuotationStatusClosed, true},
		{QuotationStatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			q := &QuotationRequest{Status: tt.status}
			if got := q.IsTerminal(); got != tt.want {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.want)
			}
		})
	}
}
