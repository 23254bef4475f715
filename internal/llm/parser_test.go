package llm

import (
	"errors"
	"testing"

	"github.com/NouctheCo/Casskai-sub005/internal/common"
)

func TestParseAccountResponse(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		wantCode       string
		wantName       string
		wantReason     string
		wantConfidence float64
		wantDegraded   bool
		wantErr        bool
	}{
		{
			name:           "strict json",
			input:          `{"account_code": "641000", "account_name": "Rémunérations du personnel", "confidence": 92, "reason": "Virement de salaires"}`,
			wantCode:       "641000",
			wantName:       "Rémunérations du personnel",
			wantConfidence: 92,
			wantReason:     "Virement de salaires",
		},
		{
			name:           "json embedded in prose",
			input:          "Voici le compte approprié :\n{\"account_code\": \"613200\", \"account_name\": \"Locations immobilières\", \"confidence\": 80, \"reason\": \"Loyer\"}\nBonne journée.",
			wantCode:       "613200",
			wantName:       "Locations immobilières",
			wantConfidence: 80,
			wantReason:     "Loyer",
		},
		{
			name:           "markdown fenced json",
			input:          "```json\n{\"account_code\": \"606100\", \"account_name\": \"Eau et énergie\", \"confidence\": 85, \"reason\": \"EDF\"}\n```",
			wantCode:       "606100",
			wantName:       "Eau et énergie",
			wantConfidence: 85,
			wantReason:     "EDF",
		},
		{
			name:           "json missing confidence gets default",
			input:          `{"account_code": "401000", "account_name": "Fournisseurs"}`,
			wantCode:       "401000",
			wantName:       "Fournisseurs",
			wantConfidence: 70,
			wantReason:     "Suggestion IA",
		},
		{
			name:           "bare code mined from text",
			input:          "Je recommande le compte 626100 pour cette transaction téléphonique.",
			wantCode:       "626100",
			wantName:       "Compte suggéré par IA",
			wantConfidence: 60,
			wantReason:     "Extraction texte IA",
			wantDegraded:   true,
		},
		{
			name:           "malformed json falls back to code mining",
			input:          `{"account_code": 641000, invalid json here`,
			wantCode:       "641000",
			wantConfidence: 60,
			wantName:       "Compte suggéré par IA",
			wantReason:     "Extraction texte IA",
			wantDegraded:   true,
		},
		{
			name:    "nothing usable",
			input:   "Je ne peux pas déterminer le compte.",
			wantErr: true,
		},
		{
			name:    "empty response",
			input:   "",
			wantErr: true,
		},
		{
			name:    "five digit code is not an account",
			input:   "Peut-être 64100 ?",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAccountResponse(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				if !errors.Is(err, common.ErrUnparsable) {
					t.Errorf("expected ErrUnparsable, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.AccountCode != tt.wantCode {
				t.Errorf("AccountCode = %q, want %q", got.AccountCode, tt.wantCode)
			}
			if got.AccountName != tt.wantName {
				t.Errorf("AccountName = %q, want %q", got.AccountName, tt.wantName)
			}
			if got.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.wantConfidence)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
			if got.Degraded != tt.wantDegraded {
				t.Errorf("Degraded = %v, want %v", got.Degraded, tt.wantDegraded)
			}
		})
	}
}
