package settings

import "sort"

// languageNames maps UI language codes to their native names.
var languageNames = map[string]string{
	"ar":    "العربية",
	"bg":    "български",
	"cs":    "Čeština",
	"de":    "Deutsch",
	"ee":    "Eesti",
	"en":    "English",
	"es":    "Español",
	"fa":    "فارسی",
	"fi":    "Suomi",
	"fr":    "Français",
	"he":    "עברית",
	"hr":    "Hrvatski",
	"hu":    "Magyar",
	"id":    "Bahasa Indonesia",
	"it":    "Italiano",
	"ja":    "日本語",
	"ka":    "ქართული",
	"ko":    "한국어",
	"nl":    "Nederlands",
	"pl":    "Polski",
	"pt_BR": "Português Brasil",
	"pt":    "Português",
	"ro":    "Română",
	"ru":    "Pусский",
	"sk":    "Slovenský",
	"sl":    "Slovenščina",
	"sr":    "српски",
	"sv":    "Svenska",
	"th":    "ภาษาไทย",
	"tl":    "Tagalog",
	"tr":    "Türkçe",
	"uk":    "Українська",
	"vi":    "Tiếng Việt",
	"zh_CN": "简体中文",
	"zh_TW": "中文繁體",
}

// Language is one entry of the language selector.
type Language struct {
	Code string
	Name string
}

// LanguageName returns the native name for code, or "" if unsupported.
func LanguageName(code string) string {
	return languageNames[code]
}

// Languages lists the supported languages ordered by code.
func Languages() []Language {
	out := make([]Language, 0, len(languageNames))
	for code, name := range languageNames {
		out = append(out, Language{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
