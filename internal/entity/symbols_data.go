package entity

// orgClassTable maps legal-form tokens, across the jurisdictions the
// datasets cover, to a canonical class. "OOO" (Russia), "LLC" (US) and
// "Ltd" (UK) all collapse to the same class so that transliterated
// company names still block together.
var orgClassTable = map[string]string{
	"llc":          "LLC",
	"ooo":          "LLC",
	"ltd":          "LLC",
	"limited":      "LLC",
	"llp":          "LLC",
	"sarl":         "LLC",
	"srl":          "LLC",
	"bv":           "LLC",
	"jsc":          "JSC",
	"ao":           "JSC",
	"oao":          "JSC",
	"zao":          "JSC",
	"pao":          "JSC",
	"sa":           "JSC",
	"ag":           "JSC",
	"nv":           "JSC",
	"spa":          "JSC",
	"plc":          "JSC",
	"inc":          "INC",
	"incorporated": "INC",
	"corp":         "INC",
	"corporation":  "INC",
	"co":           "INC",
	"company":      "INC",
	"gmbh":         "GMBH",
	"kg":           "GMBH",
	"oy":           "GMBH",
	"ab":           "GMBH",
}

// symbolEquivalence maps well-known tokens (and their transliterations)
// to a shared equivalence class, so "Gazprom Bank", "Gazprom Banka" and
// "Газпром Банк" all index SYMBOL:BANK.
var symbolEquivalence = map[string]string{
	"bank":     "BANK",
	"banka":    "BANK",
	"banque":   "BANK",
	"banco":    "BANK",
	"банк":     "BANK",
	"group":    "GROUP",
	"gruppe":   "GROUP",
	"groupe":   "GROUP",
	"grupo":    "GROUP",
	"группа":   "GROUP",
	"holding":  "HOLDING",
	"holdings": "HOLDING",
	"trading":  "TRADE",
	"trade":    "TRADE",
	"shipping": "SHIPPING",
	"airlines": "AIRLINE",
	"airline":  "AIRLINE",
	"petroleum": "PETRO",
	"petrol":    "PETRO",
	"oil":       "PETRO",
}
