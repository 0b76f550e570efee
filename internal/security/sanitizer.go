package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// RichTextSanitizer は求人・企業の説明文など利用者が入力するHTMLを無害化する。
type RichTextSanitizer interface {
	Sanitize(rawHTML string) string
}

// richTextSanitizer はbluemondayのポリシーによる実装。
type richTextSanitizer struct {
	policy *bluemonday.Policy
}

// NewRichTextSanitizer は求人票・企業紹介向けの許可リストでサニタイザーを生成する。
//
// 許可する要素は段落・改行・見出し(h3, h4)・リスト・強調・引用とリンクのみ。
// リンクはhttp/https/mailtoに限り、外部リンクには
// target="_blank" と rel="noopener noreferrer" を付与する。
// 画像・スクリプト・フォーム・インラインスタイルはすべて除去する。
func NewRichTextSanitizer() *richTextSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "h3", "h4",
		"ul", "ol", "li",
		"strong", "em", "b", "i", "u",
		"blockquote",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(false)
	p.RequireParseableURLs(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &richTextSanitizer{policy: p}
}

// Sanitize はHTMLを許可リストに従って無害化する。冪等。
func (s *richTextSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}

// SanitizeAll は複数のフィールドをその場で無害化する。
func SanitizeAll(s RichTextSanitizer, fields ...*string) {
	for _, f := range fields {
		if f != nil && *f != "" {
			*f = s.Sanitize(*f)
		}
	}
}
