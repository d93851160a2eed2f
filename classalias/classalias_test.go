package classalias_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/docwire/classalias"
	"code.hybscloud.com/docwire/wireerr"
)

type widget struct{ N int }

func TestRegistry_RegisterAndResolveBothWays(t *testing.T) {
	r := classalias.New()
	tag := "widget"
	if err := r.Register("Widget", tag); err != nil {
		t.Fatal(err)
	}
	if name, ok := r.NameOf(tag); !ok || name != "Widget" {
		t.Fatalf("NameOf: got (%q,%v)", name, ok)
	}
	if got, ok := r.TypeOf("Widget"); !ok || got != tag {
		t.Fatalf("TypeOf: got (%v,%v)", got, ok)
	}
}

func TestRegistry_FreezeRejectsFurtherRegistration(t *testing.T) {
	r := classalias.New()
	r.Freeze()
	if err := r.Register("Widget", "widget"); !errors.Is(err, wireerr.IllegalArgument) {
		t.Fatalf("want IllegalArgument after freeze, got %v", err)
	}
}

func TestRegistry_UnknownAliasMisses(t *testing.T) {
	r := classalias.New()
	if _, ok := r.TypeOf("Nope"); ok {
		t.Fatal("expected miss for unregistered alias")
	}
}

func TestDefault_IsProcessWide(t *testing.T) {
	a := classalias.Default()
	b := classalias.Default()
	if a != b {
		t.Fatal("Default() must return the same instance across calls")
	}
}
