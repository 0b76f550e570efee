package security

import (
	"strings"
	"testing"
)

func TestSanitize_AllowedMarkup(t *testing.T) {
	sanitizer := NewRichTextSanitizer()

	tests := []struct {
		name         string
		input        string
		wantContains []string
	}{
		{
			name:         "段落と強調が残る",
			input:        "<p>Deneyimli <strong>Go</strong> geliştirici</p>",
			wantContains: []string{"<p>", "<strong>Go</strong>"},
		},
		{
			name:         "見出しが残る",
			input:        "<h3>Aranan Nitelikler</h3>",
			wantContains: []string{"<h3>Aranan Nitelikler</h3>"},
		},
		{
			name:         "リストが残る",
			input:        "<ul><li>Ehliyet</li><li>Askerlik</li></ul>",
			wantContains: []string{"<ul>", "<li>Ehliyet</li>", "</ul>"},
		},
		{
			name:         "外部リンクに安全な属性が付与される",
			input:        `<a href="https://ornek.com.tr">Site</a>`,
			wantContains: []string{`href="https://ornek.com.tr"`, `target="_blank"`, "noopener", "noreferrer"},
		},
		{
			name:         "mailtoリンクが残る",
			input:        `<a href="mailto:ik@ornek.com.tr">İK</a>`,
			wantContains: []string{"mailto:ik@ornek.com.tr"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

func TestSanitize_RemovesDangerousMarkup(t *testing.T) {
	sanitizer := NewRichTextSanitizer()

	tests := []struct {
		name         string
		input        string
		wantAbsent   []string
		wantContains []string
	}{
		{
			name:         "scriptが除去される",
			input:        `<p>Maaş</p><script>alert('xss')</script>`,
			wantAbsent:   []string{"<script", "alert"},
			wantContains: []string{"Maaş"},
		},
		{
			name:       "javascriptスキームのリンクが除去される",
			input:      `<a href="javascript:alert(1)">tıkla</a>`,
			wantAbsent: []string{"javascript:"},
		},
		{
			name:         "イベント属性が除去される",
			input:        `<p onclick="steal()">Yan haklar</p>`,
			wantAbsent:   []string{"onclick", "steal"},
			wantContains: []string{"Yan haklar"},
		},
		{
			name:       "画像が除去される",
			input:      `<img src="https://ornek.com/a.png">`,
			wantAbsent: []string{"<img"},
		},
		{
			name:         "styleとdivが除去される",
			input:        `<div style="color:red"><p>Metin</p></div><style>p{}</style>`,
			wantAbsent:   []string{"<div", "style", "p{}"},
			wantContains: []string{"<p>Metin</p>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Errorf("Sanitize(%q) = %q, should NOT contain %q", tt.input, got, absent)
				}
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	sanitizer := NewRichTextSanitizer()

	input := `<h3>Görev</h3><p>Ekip <em>lideri</em></p><a href="https://ornek.com">link</a>`
	once := sanitizer.Sanitize(input)
	twice := sanitizer.Sanitize(once)
	if once != twice {
		t.Errorf("二重サニタイズで結果が変わった: %q → %q", once, twice)
	}
}

func TestSanitizeAll(t *testing.T) {
	sanitizer := NewRichTextSanitizer()

	desc := `<p>İlan</p><script>x()</script>`
	benefits := ""
	SanitizeAll(sanitizer, &desc, &benefits, nil)

	if strings.Contains(desc, "script") {
		t.Errorf("desc not sanitized: %q", desc)
	}
	if benefits != "" {
		t.Errorf("空文字列が変化した: %q", benefits)
	}
}
