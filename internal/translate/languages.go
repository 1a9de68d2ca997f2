package translate

import "strings"

// Canonical is the language the corpus is written in.
const Canonical = "en"

// Language is a supported student language.
type Language struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

var supported = []Language{
	{"English", "en"},
	{"Hindi", "hi"},
	{"Urdu", "ur"},
	{"Tamil", "ta"},
	{"Telugu", "te"},
	{"Bengali", "bn"},
	{"Marathi", "mr"},
	{"Gujarati", "gu"},
	{"Kannada", "kn"},
	{"Malayalam", "ml"},
}

// Languages lists the supported languages in display order.
func Languages() []Language {
	out := make([]Language, len(supported))
	copy(out, supported)
	return out
}

// LanguageName returns the display name for a code, or the code itself
// when it is not supported.
func LanguageName(code string) string {
	for _, s := range supported {
		if strings.EqualFold(code, s.Code) {
			return s.Name
		}
	}
	return code
}

// ResolveCode maps a language name or ISO 639-1 code to its code.
func ResolveCode(language string) (string, bool) {
	l := strings.TrimSpace(language)
	for _, s := range supported {
		if strings.EqualFold(l, s.Name) || strings.EqualFold(l, s.Code) {
			return s.Code, true
		}
	}
	return "", false
}
