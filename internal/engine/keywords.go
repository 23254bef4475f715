package engine

import (
	"sort"
	"strings"

	"github.com/NouctheCo/Casskai-sub005/internal/model"
)

const (
	keywordConfidence  = 65
	suspenseConfidence = 40
	maxKeywordResults  = 3

	suspenseAccountCode = "471000"
	suspenseAccountName = "Comptes d'attente"
)

// keywordCategory maps a family of statement wordings to its canonical plan
// comptable général account.
type keywordCategory struct {
	name        string
	accountCode string
	accountName string
	keywords    []string
}

// keywordCategories is the static fallback table. Matching is substring
// membership over the lowercased description.
var keywordCategories = []keywordCategory{
	{
		name:        "salaires",
		accountCode: "641000",
		accountName: "Rémunérations du personnel",
		keywords:    []string{"salaire", "salaires", "paie", "vir salaires", "virement salaires"},
	},
	{
		name:        "urssaf",
		accountCode: "645000",
		accountName: "Charges de sécurité sociale",
		keywords:    []string{"urssaf", "secu", "sécurité sociale", "cotisations sociales"},
	},
	{
		name:        "electricite",
		accountCode: "606100",
		accountName: "Eau et énergie",
		keywords:    []string{"edf", "électricité", "electricite", "gaz", "engie", "eau"},
	},
	{
		name:        "fournitures",
		accountCode: "606400",
		accountName: "Fournitures administratives",
		keywords:    []string{"amazon", "bureau vallée", "fournitures", "papeterie"},
	},
	{
		name:        "clients",
		accountCode: "411000",
		accountName: "Clients",
		keywords:    []string{"vir client", "virement client", "paiement client", "facture client"},
	},
	{
		name:        "fournisseurs",
		accountCode: "401000",
		accountName: "Fournisseurs",
		keywords:    []string{"cheque fournisseur", "paiement fournisseur", "vir fournisseur"},
	},
	{
		name:        "frais_bancaires",
		accountCode: "661100",
		accountName: "Frais bancaires",
		keywords:    []string{"agios", "frais bancaires", "commission bancaire", "tenue de compte"},
	},
	{
		name:        "loyer",
		accountCode: "613200",
		accountName: "Locations immobilières",
		keywords:    []string{"loyer", "bail", "location", "immobilier"},
	},
	{
		name:        "telephone",
		accountCode: "626100",
		accountName: "Téléphone",
		keywords:    []string{"orange", "sfr", "bouygues", "free", "telephone", "internet"},
	},
}

// accountNameFor resolves a canonical account name from the static table,
// falling back to the bare code for accounts the table does not know.
func accountNameFor(accountCode string) string {
	if accountCode == suspenseAccountCode {
		return suspenseAccountName
	}
	for _, category := range keywordCategories {
		if category.accountCode == accountCode {
			return category.accountName
		}
	}
	return "Compte " + accountCode
}

// keywordSuggestions matches the lowercased description against the static
// table. Every matching category contributes one suggestion; when nothing
// matches, a single suspense-account suggestion is synthesized so the caller
// always has at least one option. Pure string matching, cannot fail.
func keywordSuggestions(description string) []model.AccountSuggestion {
	desc := strings.ToLower(description)

	type match struct {
		suggestion model.AccountSuggestion
		keywordLen int
	}

	var matches []match
	for _, category := range keywordCategories {
		longest := 0
		for _, keyword := range category.keywords {
			if strings.Contains(desc, keyword) && len(keyword) > longest {
				longest = len(keyword)
			}
		}
		if longest == 0 {
			continue
		}
		matches = append(matches, match{
			keywordLen: longest,
			suggestion: model.AccountSuggestion{
				AccountCode:     category.accountCode,
				AccountName:     category.accountName,
				ConfidenceScore: keywordConfidence,
				Reason:          "Mot-clé: " + category.name,
			},
		})
	}

	if len(matches) == 0 {
		return []model.AccountSuggestion{{
			AccountCode:     suspenseAccountCode,
			AccountName:     suspenseAccountName,
			ConfidenceScore: suspenseConfidence,
			Reason:          "Compte d'attente (à vérifier manuellement)",
		}}
	}

	// More specific keyword matches first; ties keep table order.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].keywordLen > matches[j].keywordLen
	})

	if len(matches) > maxKeywordResults {
		matches = matches[:maxKeywordResults]
	}

	suggestions := make([]model.AccountSuggestion, len(matches))
	for i, m := range matches {
		suggestions[i] = m.suggestion
	}
	return suggestions
}
