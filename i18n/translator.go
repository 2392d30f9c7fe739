package i18n

import "strings"

// Translator retrieves localized messages for error codes.
// data provides optional values to embed in the message (for example,
// "field" or "expected"); placeholders are written as {name}.
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalogue = map[string]map[string]string{
	"en": {
		"type_constraint":   "expected {expected}, got {actual}",
		"required":          "required field {field} is missing",
		"null_not_allowed":  "null value not allowed for field {field}",
		"unknown_field":     "{record} has no field {field}",
		"schema_definition": "invalid definition: {detail}",
		"schema_resolution": "cannot resolve writer and reader schema: {detail}",
		"array_items":       "Array field {field} items should all be of type {expected}",
		"map_keys":          "Map keys for field {field} should all be strings",
		"map_values":        "Map values for field {field} should all be of type {expected}",
		"record_mismatch":   "expected record {expected}, got {actual}",
		"enum_mismatch":     "expected a member of enum {expected}, got {actual}",
		"duplicate_key":     "key {field} appears more than once",
	},
	"ja": {
		"type_constraint":   "{expected} を期待しますが {actual} が渡されました",
		"required":          "必須フィールド {field} がありません",
		"null_not_allowed":  "フィールド {field} に null は指定できません",
		"unknown_field":     "{record} にフィールド {field} はありません",
		"schema_definition": "定義が不正です: {detail}",
		"schema_resolution": "書き込み側と読み取り側のスキーマを解決できません: {detail}",
		"array_items":       "配列フィールド {field} の要素はすべて {expected} 型でなければなりません",
		"map_keys":          "マップフィールド {field} のキーはすべて文字列でなければなりません",
		"map_values":        "マップフィールド {field} の値はすべて {expected} 型でなければなりません",
		"record_mismatch":   "レコード {expected} を期待しますが {actual} が渡されました",
		"enum_mismatch":     "列挙型 {expected} の値を期待しますが {actual} が渡されました",
		"duplicate_key":     "キー {field} が重複しています",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	tmpl, ok := catalogue[t.lang][code]
	if !ok {
		if tmpl, ok = catalogue["en"][code]; !ok {
			return code
		}
	}
	if len(data) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, 2*len(data))
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
