package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify 生成 URL 友好的 slug，保留 Unicode 字母与数字
func Slugify(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))

	var b strings.Builder
	pendingDash := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			pendingDash = true
		}
	}

	return strings.Trim(b.String(), "-_")
}

// DeriveDisplayName 去掉片名中 "(" 之后的部分（通常是年份）
func DeriveDisplayName(name string) string {
	if before, _, found := strings.Cut(name, "("); found {
		return strings.TrimSpace(before)
	}
	return name
}

// IndexLetter 返回用于字母索引分组的首字母，非字母统一归入 "#"
func IndexLetter(name string) string {
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsLetter(r) {
			return strings.ToUpper(string(r))
		}
		return "#"
	}
	return "#"
}
