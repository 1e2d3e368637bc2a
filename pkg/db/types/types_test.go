package dbtypes

import "testing"

func TestStringListScanAndValue(t *testing.T) {
	var l StringList
	if err := l.Scan(`["Pure sine wave","LCD display"]`); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(l) != 2 || l[1] != "LCD display" {
		t.Fatalf("unexpected list %v", l)
	}

	v, err := StringList(nil).Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if v != "[]" {
		t.Fatalf("expected empty array literal, got %v", v)
	}

	if err := l.Scan(nil); err != nil || len(l) != 0 {
		t.Fatalf("nil scan should reset list, got %v err %v", l, err)
	}
	if err := l.Scan(42); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}

func TestJSONTextRejectsInvalid(t *testing.T) {
	if _, err := JSONText(`{"a":`).Value(); err == nil {
		t.Fatalf("expected invalid json error")
	}
	v, err := JSONText(`{"a":1}`).Value()
	if err != nil || v != `{"a":1}` {
		t.Fatalf("unexpected value %v err %v", v, err)
	}
}
