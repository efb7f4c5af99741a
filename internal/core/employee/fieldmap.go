package employee

import (
	"log/slog"
	"strconv"
	"strings"
)

// FieldMapper は論理フィールド名と型付きアクセサの対応表です。
// CSV セル値の型変換をリフレクションなしで行います。変換失敗は警告ログを
// 残してフィールドを未設定のまま残すだけで、行の取り込み自体は継続します。
type FieldMapper struct {
	preferredDateFormat string
	logger              *slog.Logger
}

// NewFieldMapper は FieldMapper を生成します。preferredDateFormat は
// 日付セルで最初に試す Go レイアウト文字列で、空なら共通レイアウトのみ使います。
func NewFieldMapper(preferredDateFormat string, logger *slog.Logger) *FieldMapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &FieldMapper{preferredDateFormat: preferredDateFormat, logger: logger}
}

type accessor struct {
	set func(m *FieldMapper, e *Employee, raw, field, batchID string)
	get func(e Employee) string
}

var accessors = map[string]accessor{
	"id": {
		set: func(m *FieldMapper, e *Employee, raw, field, batchID string) {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				m.warnInvalid(field, raw, batchID)
				return
			}
			e.ID = id
		},
		get: func(e Employee) string { return strconv.FormatInt(e.ID, 10) },
	},
	"name": {
		set: func(m *FieldMapper, e *Employee, raw, field, batchID string) {
			e.Name = &raw
		},
		get: func(e Employee) string { return stringOrEmpty(e.Name) },
	},
	"age": {
		set: func(m *FieldMapper, e *Employee, raw, field, batchID string) {
			age, err := strconv.Atoi(raw)
			if err != nil {
				m.warnInvalid(field, raw, batchID)
				return
			}
			e.Age = &age
		},
		get: func(e Employee) string {
			if e.Age == nil {
				return ""
			}
			return strconv.Itoa(*e.Age)
		},
	},
	"status": {
		set: func(m *FieldMapper, e *Employee, raw, field, batchID string) {
			e.Status = &raw
		},
		get: func(e Employee) string { return stringOrEmpty(e.Status) },
	},
	"dob": {
		set: func(m *FieldMapper, e *Employee, raw, field, batchID string) {
			dob, ok := ParseDateWithFallback(raw, m.preferredDateFormat)
			if !ok {
				m.warnInvalid(field, raw, batchID)
				return
			}
			e.DOB = &dob
		},
		get: func(e Employee) string { return FormatISODate(e.DOB) },
	},
	// 以下は抽出専用。transaction id と created date はシステム採番のため
	// CSV からは設定できません。
	"batch_id": {
		get: func(e Employee) string { return e.BatchID },
	},
	"transaction_id": {
		get: func(e Employee) string { return strconv.FormatInt(e.TransactionID, 10) },
	},
	"created_date": {
		get: func(e Employee) string {
			if e.CreatedAt.IsZero() {
				return ""
			}
			return e.CreatedAt.Format(isoDateLayout)
		},
	},
}

// Set は raw セル値を型変換して論理フィールドに設定します。
// 空白のみの値は未設定のまま残します。未知のフィールド名と取り込み不可の
// フィールドは警告ログを残してスキップします。
func (m *FieldMapper) Set(e *Employee, field, raw, batchID string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return
	}

	acc, ok := accessors[normalizeFieldName(field)]
	if !ok {
		m.logger.Warn("unknown field name", "field", field, "batch_id", batchID)
		return
	}
	if acc.set == nil {
		m.logger.Warn("field is not ingestible", "field", field, "batch_id", batchID)
		return
	}
	acc.set(m, e, trimmed, field, batchID)
}

// Get は論理フィールドの値を抽出用の文字列表現で返します。
// 未設定のフィールドと未知のフィールド名は空文字列になります。
func (m *FieldMapper) Get(e Employee, field string) string {
	acc, ok := accessors[normalizeFieldName(field)]
	if !ok || acc.get == nil {
		return ""
	}
	return acc.get(e)
}

// KnownField は論理フィールド名が対応表に存在するかを返します。
func KnownField(field string) bool {
	_, ok := accessors[normalizeFieldName(field)]
	return ok
}

func (m *FieldMapper) warnInvalid(field, raw, batchID string) {
	m.logger.Warn("invalid cell value", "field", field, "value", raw, "batch_id", batchID)
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func normalizeFieldName(field string) string {
	lower := strings.ToLower(strings.TrimSpace(field))
	switch lower {
	case "batchid":
		return "batch_id"
	case "transactionid":
		return "transaction_id"
	case "createddate":
		return "created_date"
	}
	return lower
}
