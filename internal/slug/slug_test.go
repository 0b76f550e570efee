package slug

import "testing"

func strp(s string) *string { return &s }

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"İstanbul", "istanbul"},
		{"Şanlıurfa", "sanliurfa"},
		{"Çanakkale", "canakkale"},
		{"Ağrı", "agri"},
		{"Kahramanmaraş", "kahramanmaras"},
		{"İlçe", "ilce"},
		{"Yeni Mahalle", "yeni-mahalle"},
		{"  Merkez  ", "merkez"},
		{"Acme & Co.", "acme-co"},
		{"Ali's Shop", "alis-shop"},
		{"a -- b", "a-b"},
		{"foo_bar", "foo_bar"},
		{"_-trim-_", "trim"},
		{"Öğretmen / Eğitimci", "ogretmen-egitimci"},
		{"Straße", "strasse"},
		{"€€€", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, in := range []string{"Gaziosmanpaşa Merkez", "Acme & Co.", "ÇĞİÖŞÜ çğıöşü"} {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize は冪等であるべき: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestProvince(t *testing.T) {
	got := Province("Ankara")
	if got == nil || *got != "ankara" {
		t.Fatalf("Province() = %v, want ankara", got)
	}
	if Province("") != nil {
		t.Error("空の名前はnilを返すべき")
	}
	if Province("!!!") != nil {
		t.Error("正規化結果が空の場合はnilを返すべき")
	}
}

func TestDistrict(t *testing.T) {
	got := District(strp("p-slug"), "Merkez")
	if got == nil || *got != "p-slug-merkez" {
		t.Fatalf("District() = %v, want p-slug-merkez", got)
	}

	// 親の県slugが未確定の場合はエラーではなくnil
	if District(nil, "Merkez") != nil {
		t.Error("県slugがnilの場合はnilを返すべき")
	}
	if District(strp(""), "Merkez") != nil {
		t.Error("県slugが空の場合はnilを返すべき")
	}

	// 郡名が正規化で空になる場合に県slugだけが返ると県と衝突する
	for _, name := range []string{"", "!!!", "   "} {
		if got := District(strp("p-slug"), name); got != nil {
			t.Errorf("District(%q) = %q, want nil", name, *got)
		}
	}
}

// TestNeighborhood は地区slugが郡の保存済みslugではなく郡名から導出されることを検証する。
func TestNeighborhood(t *testing.T) {
	got := Neighborhood(strp("p-slug"), "Merkez", "Yeni Mahalle")
	if got == nil || *got != "p-slug-merkez-yeni-mahalle" {
		t.Fatalf("Neighborhood() = %v, want p-slug-merkez-yeni-mahalle", got)
	}
	if Neighborhood(nil, "Merkez", "Yeni Mahalle") != nil {
		t.Error("県slugがnilの場合はnilを返すべき")
	}
	if got := Neighborhood(strp("p-slug"), "Merkez", "???"); got != nil {
		t.Errorf("地区名が空に正規化される場合はnilを返すべき: %q", *got)
	}
}

func TestExplicit(t *testing.T) {
	if Explicit(nil) != nil {
		t.Error("未指定はnilを返すべき")
	}
	for _, blank := range []string{"", "  ", "!!!", "--"} {
		if got := Explicit(strp(blank)); got != nil {
			t.Errorf("Explicit(%q) = %q, want nil", blank, *got)
		}
	}
	if got := Explicit(strp("Özel Firma")); got == nil || *got != "ozel-firma" {
		t.Errorf("Explicit() = %v, want ozel-firma", got)
	}
}

func TestCompany(t *testing.T) {
	il := &Location{ID: "il-1", Name: "İl", Slug: strp("il")}
	ilce := &Location{ID: "ilce-1", Name: "İlçe", Slug: strp("il-ilce"), ProvinceID: "il-1"}
	otherIlce := &Location{ID: "ilce-2", Name: "Başka", Slug: strp("diger-baska"), ProvinceID: "il-2"}
	ilceNoSlug := &Location{ID: "ilce-3", Name: "Sluglu Değil", ProvinceID: "il-1"}
	ilNoSlug := &Location{ID: "il-9", Name: "Yeni İl"}

	tests := []struct {
		name     string
		province *Location
		district *Location
		want     string
	}{
		{"県と郡", il, ilce, "il-ilce-acme"},
		{"別の県の郡は省略", il, otherIlce, "il-acme"},
		{"郡slugなしは省略", il, ilceNoSlug, "il-acme"},
		{"県のみ", il, nil, "il-acme"},
		{"所在地なし", nil, nil, "acme"},
		{"県slugなし", ilNoSlug, ilce, "acme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Company("Acme", tt.province, tt.district)
			if got == nil || *got != tt.want {
				t.Errorf("Company() = %v, want %q", got, tt.want)
			}
		})
	}

	if Company("", il, ilce) != nil {
		t.Error("空の名前はnilを返すべき")
	}
}

func TestPostingSectorOccupation(t *testing.T) {
	if got := Posting("Kıdemli Yazılım Geliştirici"); got == nil || *got != "kidemli-yazilim-gelistirici" {
		t.Errorf("Posting() = %v", got)
	}
	if got := Sector("Bilişim"); got == nil || *got != "bilisim" {
		t.Errorf("Sector() = %v", got)
	}
	if got := Occupation("Elektrik Teknisyeni"); got == nil || *got != "elektrik-teknisyeni" {
		t.Errorf("Occupation() = %v", got)
	}
}
