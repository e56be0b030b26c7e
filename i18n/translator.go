package i18n

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "name").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "syntax_error":
			return "構文エラー"
		case "unknown_name":
			return "未知の型名です"
		case "cyclic_import":
			return "import が循環しています"
		case "duplicate_declaration":
			return "宣言が重複しています"
		case "cyclic_alias":
			return "エイリアスが循環しています"
		case "cyclic_type":
			return "型定義が循環しています"
		case "invalid_union":
			return "union のメンバが不正です"
		case "invalid_map_key":
			return "map のキー型が不正です"
		case "default_type_mismatch":
			return "デフォルト値の型が一致しません"
		case "conflicting_optional_default":
			return "optional とデフォルト値は併用できません"
		case "enum_value_conflict":
			return "enum の値が重複しています"
		case "invalid_type":
			return "型が不正です"
		case "truncated":
			return "入力が途中で途切れています"
		case "trailing_data":
			return "末尾に余分なデータがあります"
		case "discriminant_out_of_range":
			return "union の判別子が範囲外です"
		case "invalid_enum_value":
			return "enum に存在しない値です"
		case "duplicate_key":
			return "map のキーが重複しています"
		case "overflow":
			return "値が範囲を超えています"
		}
	default: // "en"
		switch code {
		case "syntax_error":
			return "syntax error"
		case "unknown_name":
			return "unknown type name"
		case "cyclic_import":
			return "cyclic import"
		case "duplicate_declaration":
			return "duplicate declaration"
		case "cyclic_alias":
			return "cyclic alias"
		case "cyclic_type":
			return "cyclic type definition"
		case "invalid_union":
			return "invalid union"
		case "invalid_map_key":
			return "invalid map key type"
		case "default_type_mismatch":
			return "default value type mismatch"
		case "conflicting_optional_default":
			return "optional field cannot carry a default"
		case "enum_value_conflict":
			return "enum value conflict"
		case "invalid_type":
			return "invalid type"
		case "truncated":
			return "truncated input"
		case "trailing_data":
			return "trailing data after value"
		case "discriminant_out_of_range":
			return "union discriminant out of range"
		case "invalid_enum_value":
			return "value not in enum variant set"
		case "duplicate_key":
			return "duplicate map key"
		case "overflow":
			return "value out of range"
		}
	}
	return code
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
