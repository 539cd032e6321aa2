package patch

import (
	"encoding/json"
	"testing"
)

type docPatch struct {
	Title   Field[string] `json:"title"`
	DueDate Field[int64]  `json:"due_date"`
	Parent  Field[string] `json:"parent_id"`
}

func TestField_OmittedVsNullVsValue(t *testing.T) {
	var p docPatch
	if err := json.Unmarshal([]byte(`{"title":"Notes","due_date":null}`), &p); err != nil {
		t.Fatal(err)
	}

	if v, ok := p.Title.Value(); !ok || v != "Notes" {
		t.Errorf("title = %q, ok=%v", v, ok)
	}
	if !p.DueDate.Present() || !p.DueDate.IsNull() {
		t.Error("explicit null not detected")
	}
	if _, ok := p.DueDate.Value(); ok {
		t.Error("null field must not yield a value")
	}
	if p.Parent.Present() {
		t.Error("omitted field reported present")
	}
}

func TestField_ZeroValueIsAbsent(t *testing.T) {
	var f Field[int64]
	if f.Present() || f.IsNull() {
		t.Fatal("zero value must be absent")
	}
}

func TestField_Constructors(t *testing.T) {
	s := Set("x")
	if v, ok := s.Value(); !ok || v != "x" {
		t.Errorf("Set: %q, %v", v, ok)
	}
	n := Null[string]()
	if !n.IsNull() {
		t.Error("Null not null")
	}
}

func TestField_MarshalRoundTrip(t *testing.T) {
	p := docPatch{Title: Set("a"), DueDate: Null[int64]()}
	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var back docPatch
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if v, ok := back.Title.Value(); !ok || v != "a" {
		t.Errorf("title lost: %q, %v", v, ok)
	}
	if !back.DueDate.IsNull() {
		t.Error("null lost in round trip")
	}
}

func TestField_InvalidPayload(t *testing.T) {
	var f Field[int64]
	if err := json.Unmarshal([]byte(`"not-a-number"`), &f); err == nil {
		t.Fatal("expected type error")
	}
}
