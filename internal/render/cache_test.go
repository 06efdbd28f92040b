package render

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestCacheKey_Format(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"defaults", DefaultOptions(), "dark:80:false:true"},
		{"width", DefaultOptions().WithWidth(42), "dark:42:false:true"},
		{"builtin style", DefaultOptions().WithStyle(ThemeDracula), "dracula:80:false:true"},
		{"style path", DefaultOptions().WithStyle("/tmp/reply.json"), "/tmp/reply.json:80:false:true"},
		{"emoji", DefaultOptions().WithEmoji(true), "dark:80:true:true"},
		{"empty style", Options{Width: 60}, ":60:false:false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cacheKey(tt.opts); got != tt.want {
				t.Errorf("cacheKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCreateRenderer_BuiltinStyles(t *testing.T) {
	for _, name := range ThemeNames() {
		t.Run(name, func(t *testing.T) {
			if !IsBuiltinStyle(name) {
				t.Fatalf("%q should be a glamour standard style", name)
			}
			r, err := createRenderer(DefaultOptions().WithStyle(name))
			if err != nil {
				t.Fatalf("createRenderer(%q) error: %v", name, err)
			}
			out, err := r.Render("**bold**")
			if err != nil {
				t.Fatalf("Render error: %v", err)
			}
			if !strings.Contains(out, "bold") {
				t.Errorf("output %q lost the text", out)
			}
		})
	}
}

func TestCreateRenderer_EmptyStyleUsesDark(t *testing.T) {
	r, err := createRenderer(Options{Width: 40})
	if err != nil {
		t.Fatalf("createRenderer error: %v", err)
	}
	if _, err := r.Render("plain"); err != nil {
		t.Errorf("Render error: %v", err)
	}
}

func TestCreateRenderer_StylePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reply.json")
	if err := os.WriteFile(path, []byte(`{"document":{"margin":0}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if IsBuiltinStyle(path) {
		t.Fatalf("%q must not be a standard style", path)
	}

	r, err := createRenderer(DefaultOptions().WithStyle(path))
	if err != nil {
		t.Fatalf("createRenderer error: %v", err)
	}
	out, err := r.Render("from file")
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if !strings.Contains(out, "from file") {
		t.Errorf("output %q lost the text", out)
	}
}

func TestCreateRenderer_MissingStylePath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.json")
	if _, err := createRenderer(DefaultOptions().WithStyle(missing)); err == nil {
		t.Error("expected an error for a missing style file")
	}
}

func TestReply_FallsBackToLiteral(t *testing.T) {
	ClearCache()
	defer ClearCache()

	opts := DefaultOptions().WithStyle(filepath.Join(t.TempDir(), "nope.json"))
	if got := Reply("**hi**", true, opts); got != "**hi**" {
		t.Errorf("Reply() = %q, want the literal text", got)
	}
}

func TestPool_OnePoolPerKey(t *testing.T) {
	ClearCache()
	defer ClearCache()

	opts := DefaultOptions()
	r1, err := globalPool.get(opts)
	if err != nil || r1 == nil {
		t.Fatalf("get() = %v, %v", r1, err)
	}
	globalPool.put(opts, r1)

	if _, err := globalPool.get(opts); err != nil {
		t.Fatalf("second get() error: %v", err)
	}
	if CacheSize() != 1 {
		t.Errorf("CacheSize() = %d, want 1", CacheSize())
	}

	if _, err := globalPool.get(opts.WithStyle(ThemeLight)); err != nil {
		t.Fatalf("get(light) error: %v", err)
	}
	if CacheSize() != 2 {
		t.Errorf("CacheSize() = %d, want 2", CacheSize())
	}

	globalPool.put(opts, nil)

	ClearCache()
	if CacheSize() != 0 {
		t.Errorf("CacheSize() after ClearCache = %d, want 0", CacheSize())
	}
}

func TestMarkdown_Concurrent(t *testing.T) {
	ClearCache()
	defer ClearCache()

	opts := DefaultOptions().WithWidth(60)
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := Markdown("# title\n\nbody", opts); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Markdown error: %v", err)
	}
	if CacheSize() != 1 {
		t.Errorf("CacheSize() = %d, want 1", CacheSize())
	}
}
