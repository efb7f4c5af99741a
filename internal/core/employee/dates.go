package employee

import (
	"strings"
	"time"
)

const isoDateLayout = "2006-01-02"

// fallbackDateLayouts は日付セルの解釈に使うレイアウトの固定順リストです。
// ISO を最優先し、以降はスラッシュ・ダッシュ区切りの米国形式と欧州形式を
// 2 桁固定と 1 桁許容の両方で並べています。先頭から順に試し、最初に
// 解釈できたものを採用するため、並び順そのものが曖昧な値の解決規則です。
var fallbackDateLayouts = []string{
	isoDateLayout, // 1990-05-15
	"01/02/2006",  // 05/15/1990
	"1/2/2006",    // 5/15/1990
	"02/01/2006",  // 15/05/1990
	"2/1/2006",    // 15/5/1990
	"2006/01/02",  // 1990/05/15
	"2006/1/2",    // 1990/5/15
	"02-01-2006",  // 15-05-1990
	"2-1-2006",    // 15-5-1990
	"01-02-2006",  // 05-15-1990
	"1-2-2006",    // 5-15-1990
}

// ParseDate は共通レイアウト群で日付文字列を解釈します。
// 解釈できない場合は ok=false を返します。
func ParseDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}

	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDateWithFallback は preferred レイアウトを最初に試し、
// 失敗した場合に共通レイアウト群へフォールバックします。
func ParseDateWithFallback(value, preferred string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}

	if preferred != "" {
		if t, err := time.Parse(preferred, trimmed); err == nil {
			return t, true
		}
	}
	return ParseDate(trimmed)
}

// FormatISODate は日付を yyyy-mm-dd 形式に整形します。nil は空文字列になります。
func FormatISODate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(isoDateLayout)
}
