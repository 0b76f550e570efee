// Package security はHTML無害化とSSRF対策を提供する。
package security

import (
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"

	"github.com/hitoshi/istihdam/internal/model"
)

// URLGuard は外部URLの検証とSSRF対策済みHTTPクライアントを提供する。
// 企業のWebサイト・SNSリンクの登録時とロゴ取得時に使用する。
type URLGuard interface {
	// NewSafeClient はプライベート・ループバック・リンクローカル宛ての
	// 接続をダイヤル時に拒否するHTTPクライアントを生成する。
	NewSafeClient(timeout time.Duration) *http.Client
	// ValidateURL はDNS解決を伴わない静的な検証を行う。
	ValidateURL(field, rawURL string) error
}

var allowedSchemes = []string{"http", "https"}

// blockedPrefixes は静的検証で拒否するアドレス範囲。
// DNS解決後のアドレスはsafeurlのダイヤラー側で検証される。
var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fe80::/10"),
	netip.MustParsePrefix("fc00::/7"),
}

var blockedHostnames = map[string]bool{
	"localhost":                true,
	"metadata.google.internal": true,
}

type urlGuard struct{}

// NewURLGuard はURLGuardを生成する。
func NewURLGuard() *urlGuard {
	return &urlGuard{}
}

// NewSafeClient はsafeurlでラップしたHTTPクライアントを返す。
// 許可ポートは80と443のみ。
func (g *urlGuard) NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(config).Client
}

// ValidateURL はスキーム・ホスト・IPアドレスを検証する。
// 形式の誤りはINVALID_URL、内部アドレスはSSRF_BLOCKEDを返す。
func (g *urlGuard) ValidateURL(field, rawURL string) error {
	if rawURL == "" {
		return model.NewInvalidURLError(field, "URLが空です")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return model.NewInvalidURLError(field, "URLの形式が不正です")
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return model.NewInvalidURLError(field, "http または https のURLを指定してください")
	}

	host := parsed.Hostname()
	if host == "" {
		return model.NewInvalidURLError(field, "ホスト名がありません")
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if isBlockedAddr(addr) {
			return model.NewSSRFBlockedError()
		}
		return nil
	}

	if blockedHostnames[strings.ToLower(strings.TrimSuffix(host, "."))] {
		return model.NewSSRFBlockedError()
	}
	return nil
}

func isBlockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range blockedPrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ValidateOptionalURLs は空でないURLフィールドのみを検証する。
// キーはエラーに載せるフィールド名。
func ValidateOptionalURLs(g URLGuard, fields map[string]string) error {
	for field, raw := range fields {
		if raw == "" {
			continue
		}
		if err := g.ValidateURL(field, raw); err != nil {
			return err
		}
	}
	return nil
}
