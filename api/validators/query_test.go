package validators

import (
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestParseCSVKeepsEmptyEntriesInPlace(t *testing.T) {
	r := httptest.NewRequest("GET", "/?sku=a,,b", nil)
	got := ParseCSV(r, "sku")
	want := []string{"a", "", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseCSV = %v, want %v", got, want)
	}
}

func TestParseCSVTrimsEntries(t *testing.T) {
	r := httptest.NewRequest("GET", "/?sku=%20a%20,b%20", nil)
	got := ParseCSV(r, "sku")
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseCSV = %v, want %v", got, want)
	}
}

func TestParseCSVMissingParameter(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if got := ParseCSV(r, "sku"); got != nil {
		t.Errorf("ParseCSV = %v, want nil", got)
	}
}

func TestParseCSVIntsAlignsWithParseCSV(t *testing.T) {
	// Both sides of a paired sku/quantity list must keep the same indexes,
	// whatever junk the link carries.
	r := httptest.NewRequest("GET", "/?sku=a,,b&q=1,2,3", nil)
	skus := ParseCSV(r, "sku")
	quantities := ParseCSVInts(r, "q")
	if len(skus) != 3 || len(quantities) != 3 {
		t.Fatalf("skus = %v, quantities = %v", skus, quantities)
	}
	if skus[2] != "b" || quantities[2] != 3 {
		t.Errorf("index 2 = (%q, %d), want (\"b\", 3)", skus[2], quantities[2])
	}
}

func TestParseCSVIntsCoercesUnparsableToZero(t *testing.T) {
	r := httptest.NewRequest("GET", "/?q=2,x,-1", nil)
	got := ParseCSVInts(r, "q")
	want := []int{2, 0, -1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseCSVInts = %v, want %v", got, want)
	}
}
