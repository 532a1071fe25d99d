package driver_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"memoc/internal/driver"
)

func TestCompileStringSimple(t *testing.T) {
	code, err := driver.CompileString("function f(a) { return a + 1; }", driver.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(code, "function f(a)") {
		t.Errorf("code = %s", code)
	}
}

func TestCompileStringParseError(t *testing.T) {
	_, err := driver.CompileString("function f( {", driver.Options{})
	var derr *driver.Error
	if !errors.As(err, &derr) || derr.Kind != driver.KindParse {
		t.Fatalf("err = %v, want ParseError", err)
	}
}

func TestCompileStringUnsupported(t *testing.T) {
	_, err := driver.CompileString("function f() { break; }", driver.Options{})
	var derr *driver.Error
	if !errors.As(err, &derr) || derr.Kind != driver.KindUnsupportedSyntax {
		t.Fatalf("err = %v, want UnsupportedSyntax", err)
	}
}

func TestCompileStringPassThrough(t *testing.T) {
	src := "function f() { break; }"
	code, err := driver.CompileString(src, driver.Options{PassThrough: true})
	if err == nil {
		t.Fatal("pass-through still reports the error")
	}
	if code != src {
		t.Errorf("pass-through did not return the original source: %q", code)
	}
}

func TestCompileStringAtomic(t *testing.T) {
	// Two functions; the second is unsupported. No partial output.
	src := "function a() { return 1; }\nfunction b() { continue; }"
	code, err := driver.CompileString(src, driver.Options{})
	if err == nil {
		t.Fatal("expected failure")
	}
	if code != "" {
		t.Errorf("partial output leaked: %q", code)
	}
}

func TestCompileStringMultipleFunctions(t *testing.T) {
	src := "function a() { return 1; }\nfunction b(x) { return x; }"
	code, err := driver.CompileString(src, driver.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(code, "function a()") || !strings.Contains(code, "function b(x)") {
		t.Errorf("code = %s", code)
	}
	// Output preserves source order regardless of goroutine scheduling.
	if strings.Index(code, "function a()") > strings.Index(code, "function b(x)") {
		t.Error("function order not preserved")
	}
}

func TestCompileDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "one.js"), []byte("function a() { return 1; }"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "two.js"), []byte("function b() { return 2; }"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, results, err := driver.CompileDir(context.Background(), dir, driver.Options{}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("%s: %v", r.Path, r.Err)
		}
		if !strings.Contains(r.Code, "function ") {
			t.Errorf("%s: code = %q", r.Path, r.Code)
		}
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	cache, err := driver.OpenDiskCache("memoc-test")
	if err != nil {
		t.Fatal(err)
	}

	key := driver.Key("function f() {}", "js")
	if hit, err := cache.Get(key); err != nil || hit != nil {
		t.Fatalf("expected miss, got %v %v", hit, err)
	}

	want := &driver.DiskPayload{FileType: "js", Code: "function f() {}\n"}
	if err := cache.Put(key, want); err != nil {
		t.Fatal(err)
	}
	got, err := cache.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Code != want.Code || got.FileType != "js" {
		t.Errorf("got = %+v", got)
	}
}

func TestKeyDistinguishesFileType(t *testing.T) {
	if driver.Key("src", "js") == driver.Key("src", "ts") {
		t.Error("file type not mixed into the key")
	}
}
