// Package slug はURL用の識別子（slug）の生成を提供する。
//
// 各エンティティのslugは作成時に1度だけ導出され、以降の名前変更では
// 再計算されない。導出関数はすべて副作用のない純粋関数で、
// 親のslugが未確定の場合はnilを返す（エラーにはしない）。
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letterReplacements はNFKD分解で基底文字に分解されない文字の置換表。
// トルコ語の点なしı（U+0131）はここで明示的にiへ変換する。
var letterReplacements = map[rune]string{
	'ı': "i",
	'ø': "o",
	'Ø': "o",
	'ß': "ss",
	'æ': "ae",
	'Æ': "ae",
	'œ': "oe",
	'Œ': "oe",
	'đ': "d",
	'Đ': "d",
	'ł': "l",
	'Ł': "l",
}

// Normalize は文字列をslugに変換する。
// NFKD分解で結合文字を除去してASCIIに寄せ、小文字化した上で
// 英数字とアンダースコア以外を除去し、空白とハイフンの連続を1つのハイフンにまとめる。
// 先頭と末尾のハイフン・アンダースコアは除去する。
func Normalize(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	decomposed, _, err := transform.String(t, s)
	if err != nil {
		decomposed = s
	}

	var b strings.Builder
	pendingSep := false
	write := func(str string) {
		if pendingSep && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingSep = false
		b.WriteString(str)
	}

	for _, r := range decomposed {
		if rep, ok := letterReplacements[r]; ok {
			write(rep)
			continue
		}
		r = unicode.ToLower(r)
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			write(string(r))
		case r == '-' || unicode.IsSpace(r):
			pendingSep = true
		}
	}

	return strings.Trim(b.String(), "-_")
}

// fromName は名前を正規化し、結果が空の場合はnilを返す。
func fromName(name string) *string {
	s := Normalize(name)
	if s == "" {
		return nil
	}
	return &s
}

// join はセグメントをハイフンで連結する。空のセグメントは無視する。
func join(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "-")
}

// Province は県のslugを導出する。
func Province(name string) *string {
	return fromName(name)
}

// Sector は業種のslugを導出する。
func Sector(name string) *string {
	return fromName(name)
}

// Occupation は職業のslugを導出する。
func Occupation(name string) *string {
	return fromName(name)
}

// Posting は求人タイトルからslugを導出する。
func Posting(title string) *string {
	return fromName(title)
}

// District は郡のslugを "{県slug}-{郡名}" として導出する。
// 県のslugが未確定の場合や、郡名が正規化で空になる場合はnilを返す。
func District(provinceSlug *string, name string) *string {
	if provinceSlug == nil || *provinceSlug == "" {
		return nil
	}
	n := Normalize(name)
	if n == "" {
		return nil
	}
	s := join(*provinceSlug, n)
	return &s
}

// Neighborhood は地区のslugを "{県slug}-{郡名}-{地区名}" として導出する。
// 郡の保存済みslugではなく郡名を毎回正規化するため、
// 郡のslugが後から書き換えられても既存の地区slugには影響しない。
func Neighborhood(provinceSlug *string, districtName, name string) *string {
	if provinceSlug == nil || *provinceSlug == "" {
		return nil
	}
	n := Normalize(name)
	if n == "" {
		return nil
	}
	s := join(*provinceSlug, Normalize(districtName), n)
	return &s
}

// Explicit は明示指定されたslugを正規化する。
// 未指定または正規化結果が空の場合はnilを返し、呼び出し側で導出に委ねる。
func Explicit(s *string) *string {
	if s == nil {
		return nil
	}
	n := Normalize(*s)
	if n == "" {
		return nil
	}
	return &n
}

// Location は企業slugの導出に必要な所在地情報。
type Location struct {
	ID         string
	Name       string
	Slug       *string
	ProvinceID string // 郡の場合のみ: 所属する県のID
}

// Company は企業のslugを導出する。
//
// 県にslugがあれば "{県slug}-" を接頭辞とし、さらに郡が同じ県に属し
// slugを持つ場合は郡名を正規化した "{郡名}-" を挿入する。
// 郡が別の県に属する場合は郡セグメントを黙って省略する。
// 所在地がない場合は名前のみから導出する。
func Company(name string, province, district *Location) *string {
	nameSlug := Normalize(name)
	if name == "" {
		return nil
	}

	if province == nil || province.Slug == nil || *province.Slug == "" {
		return fromName(name)
	}

	prefix := *province.Slug
	if district != nil && district.Slug != nil && *district.Slug != "" && district.ProvinceID == province.ID {
		prefix = join(prefix, Normalize(district.Name))
	}

	s := join(prefix, nameSlug)
	return &s
}
