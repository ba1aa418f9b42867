package webinspector

import "testing"

func TestWireStringIrregulars(t *testing.T) {
	if got := URL.wireString(); got != "WIRURLKey" {
		t.Fatalf("URL.wireString() = %q, want %q", got, "WIRURLKey")
	}
	if got := AutomaticallyPause.wireString(); got != "WIRAutomaticallyPause" {
		t.Fatalf("AutomaticallyPause.wireString() = %q, want %q", got, "WIRAutomaticallyPause")
	}
}

func TestWireStringDefaultDerivation(t *testing.T) {
	if got := ConnectionIdentifier.wireString(); got != "WIRConnectionIdentifierKey" {
		t.Fatalf("got %q", got)
	}
}

func TestIsApplicationActiveRoundTripsThroughInteger(t *testing.T) {
	a := argument{}
	a.setBool(IsApplicationActive, true)

	raw, ok := a[IsApplicationActive.wireString()]
	if !ok {
		t.Fatal("expected wire key to be set")
	}
	if n, ok := raw.(int64); !ok || n != 1 {
		t.Fatalf("expected wire value 1 (int64), got %#v", raw)
	}

	got, ok := a.getBool(IsApplicationActive)
	if !ok || !got {
		t.Fatalf("getBool(IsApplicationActive) = %v, %v", got, ok)
	}
}

func TestGetIntAcceptsPlistDecoderIntegerShapes(t *testing.T) {
	for _, v := range []interface{}{int64(7), int(7), uint64(7)} {
		a := argument{PageIdentifier.wireString(): v}
		got, ok := a.getInt(PageIdentifier)
		if !ok || got != 7 {
			t.Fatalf("getInt(%#v) = %v, %v", v, got, ok)
		}
	}
}
