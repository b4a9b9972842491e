package relocate_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"shelver/internal/relocate"
)

func stubHandler(tag string) relocate.Handler {
	return func(context.Context, string, string) (relocate.Result, error) {
		return relocate.Result{Linked: []string{tag}}, nil
	}
}

func TestKeyFormat(t *testing.T) {
	if got := relocate.Key(120089, 1); got != "content-120089-s1" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestResolveIsCaseInsensitive(t *testing.T) {
	reg := relocate.NewRegistry()
	if err := reg.Register("content-120089-s1", stubHandler("spy")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	handler, err := reg.Resolve("CONTENT-120089-S1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	result, _ := handler(context.Background(), "", "")
	if len(result.Linked) != 1 || result.Linked[0] != "spy" {
		t.Fatalf("resolved the wrong handler: %+v", result)
	}
}

func TestResolveUnknownKey(t *testing.T) {
	reg := relocate.NewRegistry()
	for _, key := range []string{"content-86031-s4", "content-120089-s1"} {
		if err := reg.Register(key, stubHandler(key)); err != nil {
			t.Fatalf("Register %s failed: %v", key, err)
		}
	}

	_, err := reg.Resolve("content-999-s1")
	if !errors.Is(err, relocate.ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
	var unknown *relocate.UnknownKeyError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownKeyError, got %T", err)
	}
	want := []string{"content-120089-s1", "content-86031-s4"}
	if unknown.Key != "content-999-s1" || !reflect.DeepEqual(unknown.Known, want) {
		t.Fatalf("unexpected error detail: %+v", unknown)
	}
}

func TestResolveFallsBackToDefault(t *testing.T) {
	reg := relocate.NewRegistry()
	if err := reg.SetDefault(stubHandler("default")); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	handler, err := reg.Resolve("content-999-s1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	result, _ := handler(context.Background(), "", "")
	if result.Linked[0] != "default" {
		t.Fatalf("expected default handler, got %+v", result)
	}
}

func TestRegisterRejectsInvalidEntries(t *testing.T) {
	reg := relocate.NewRegistry()
	if err := reg.Register("content-1-s1", stubHandler("a")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		name    string
		key     string
		handler relocate.Handler
	}{
		{name: "duplicate differing only by case", key: "Content-1-S1", handler: stubHandler("b")},
		{name: "empty key", key: "  ", handler: stubHandler("c")},
		{name: "nil handler", key: "content-2-s1", handler: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := reg.Register(tt.key, tt.handler); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 registered key, got %d", reg.Len())
	}
}

func TestFrozenRegistryRejectsChanges(t *testing.T) {
	reg := relocate.NewRegistry()
	reg.Freeze()
	if err := reg.Register("content-1-s1", stubHandler("a")); !errors.Is(err, relocate.ErrRegistryFrozen) {
		t.Fatalf("expected ErrRegistryFrozen, got %v", err)
	}
	if err := reg.SetDefault(stubHandler("a")); !errors.Is(err, relocate.ErrRegistryFrozen) {
		t.Fatalf("expected ErrRegistryFrozen, got %v", err)
	}
}
