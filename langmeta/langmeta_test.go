package langmeta

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "pt_br", want: "pt-BR"},
		{in: " EN-us ", want: "en-US"},
		{in: "zh-hant", want: "zh-Hant"},
		{in: "ru", want: "ru"},
		{in: "", want: ""},
	}

	for _, tc := range cases {
		got := canonicalize(tc.in)
		if got != tc.want {
			t.Fatalf("canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Run("names and flag", func(t *testing.T) {
		got := Resolve("de")
		want := Meta{Code: "de", Name: "German", Native: "Deutsch", Flag: "🇩🇪"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("Resolve(de) (-want +got):\n%s", diff)
		}
	})

	t.Run("inferred region flag", func(t *testing.T) {
		got := Resolve("ja")
		if got.Flag != "🇯🇵" || got.Native != "日本語" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("underscore variant", func(t *testing.T) {
		got := Resolve("pt_BR")
		if got.Flag != "🇧🇷" || got.Name == "pt_BR" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("unknown passthrough", func(t *testing.T) {
		got := Resolve("zz-ZZ")
		if got.Name != "zz-ZZ" || got.Flag != "" {
			t.Fatalf("unexpected unknown result: %#v", got)
		}
	})
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("de"); got != "German (Deutsch)" {
		t.Errorf("DisplayName(de) = %q", got)
	}
	if got := DisplayName("zz"); got != "zz" {
		t.Errorf("DisplayName(zz) = %q", got)
	}
}

func TestValidate(t *testing.T) {
	for _, ok := range []string{"de", "pt-BR", "zh_CN", "fil"} {
		if err := Validate(ok, nil); err != nil {
			t.Errorf("Validate(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"", "zz", "not a code", "12"} {
		if err := Validate(bad, nil); !errors.Is(err, ErrUnknownLanguage) {
			t.Errorf("Validate(%q) = %v, want ErrUnknownLanguage", bad, err)
		}
	}
}

func TestCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "languages.json")
	data := `{"languages": [{"code": "de", "name": "German"}, {"code": "pt-BR"}, {"code": "ja"}]}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if diff := cmp.Diff([]string{"de", "pt-BR", "ja"}, c.Codes()); diff != "" {
		t.Errorf("Codes (-want +got):\n%s", diff)
	}
	if !c.Contains("pt_br") || c.Contains("fr") {
		t.Error("Contains mismatch")
	}
	if err := Validate("de", c); err != nil {
		t.Errorf("Validate(de): %v", err)
	}
	if err := Validate("fr", c); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("Validate(fr) = %v, want ErrUnknownLanguage", err)
	}

	known := Known(c)
	if len(known) != 3 || known[0].Code != "de" || known[2].Code != "pt-BR" {
		t.Errorf("Known(catalog) = %+v", known)
	}
}

func TestLoadCatalogErrors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"empty.json":  `{"languages": []}`,
		"nocode.json": `{"languages": [{"name": "German"}]}`,
		"broken.json": `{"languages": [`,
	}
	for name, content := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadCatalog(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := LoadCatalog(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing catalog: expected error")
	}
}

func TestKnownDefaultsToCommon(t *testing.T) {
	known := Known(nil)
	if len(known) != len(Common) {
		t.Fatalf("Known(nil) = %d entries, want %d", len(known), len(Common))
	}
	for i := 1; i < len(known); i++ {
		if known[i-1].Code > known[i].Code {
			t.Fatalf("not sorted at %d: %s > %s", i, known[i-1].Code, known[i].Code)
		}
	}
}
