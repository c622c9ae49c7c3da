package catalog

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeDocument_RejectsNonObjects(t *testing.T) {
	for _, payload := range []string{`[]`, `"x"`, `42`, `null`, `{not-json`, ``} {
		if _, err := DecodeDocument([]byte(payload)); !errors.Is(err, ErrNotObject) {
			t.Fatalf("DecodeDocument(%q) error = %v, want ErrNotObject", payload, err)
		}
	}
}

func TestDocument_AccessorsDefaultOnWrongTypes(t *testing.T) {
	doc, err := DecodeDocument([]byte(`{
		"int": 12,
		"float": 3.75,
		"big": 9007199254740993,
		"str": "hello",
		"yes": true,
		"one": 1,
		"zero": 0,
		"null": null,
		"obj": {"a": 1},
		"arr": [{"a": 1}, 2, "x", {"a": 2}],
		"ts": "2016-05-07T10:11:12Z",
		"badts": "yesterday"
	}`))
	if err != nil {
		t.Fatalf("DecodeDocument returned error: %v", err)
	}

	if got := doc.Int("int"); got != 12 {
		t.Fatalf("Int(int) = %d, want 12", got)
	}
	if got := doc.Int("float"); got != 3 {
		t.Fatalf("Int(float) = %d, want 3", got)
	}
	if got := doc.Int("big"); got != 9007199254740993 {
		t.Fatalf("Int(big) = %d, want exact value", got)
	}
	if got := doc.Int("str"); got != 0 {
		t.Fatalf("Int(str) = %d, want 0", got)
	}
	if got := doc.Float("float"); got != 3.75 {
		t.Fatalf("Float(float) = %v, want 3.75", got)
	}
	if got := doc.String("int"); got != "" {
		t.Fatalf("String(int) = %q, want empty", got)
	}
	if !doc.Bool("yes") || !doc.Bool("one") || doc.Bool("zero") || doc.Bool("str") || doc.Bool("missing") {
		t.Fatalf("Bool accessors returned unexpected values")
	}
	if doc.Has("null") || !doc.Has("str") {
		t.Fatalf("Has(null)=%v Has(str)=%v, want false/true", doc.Has("null"), doc.Has("str"))
	}
	if doc.Object("obj").Int("a") != 1 || doc.Object("arr") != nil {
		t.Fatalf("Object accessor returned unexpected values")
	}
	if objs := doc.Objects("arr"); len(objs) != 2 || objs[1].Int("a") != 2 {
		t.Fatalf("Objects(arr) = %v, want the two object elements", objs)
	}
	if doc.Objects("obj") != nil {
		t.Fatalf("Objects(obj) should be nil for non-array")
	}
	want := time.Date(2016, 5, 7, 10, 11, 12, 0, time.UTC)
	if got := doc.Time("ts"); !got.Equal(want) {
		t.Fatalf("Time(ts) = %v, want %v", got, want)
	}
	if got := doc.Time("badts"); !got.IsZero() {
		t.Fatalf("Time(badts) = %v, want zero", got)
	}
	if _, ok := doc.IntOK("str"); ok {
		t.Fatalf("IntOK(str) ok = true, want false")
	}
}

func TestDocument_NilIsSafe(t *testing.T) {
	var doc Document
	if doc.Int("x") != 0 || doc.String("x") != "" || doc.Bool("x") || doc.Object("x") != nil || doc.Objects("x") != nil {
		t.Fatalf("nil Document accessors should return zero values")
	}
	if !doc.Template("x").IsZero() {
		t.Fatalf("nil Document Template should be zero")
	}
}
