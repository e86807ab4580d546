package response

import (
	"net/http"
	"testing"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeAlreadyAnalyzed, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeInsufficientCredits, http.StatusPaymentRequired},
		{CodeAccessDenied, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeUserNotFound, http.StatusNotFound},
		{CodeQuotaExceeded, http.StatusTooManyRequests},
		{CodeNetworkError, http.StatusServiceUnavailable},
		{CodeDatabaseError, http.StatusInternalServerError},
		{CodeAPIError, http.StatusInternalServerError},
		{CodeParsingError, http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.code); got != tt.want {
			t.Errorf("StatusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
