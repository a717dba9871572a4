package provider

import (
	"context"
	"testing"
)

type fakeProvider struct{ name string }

func (f *fakeProvider) Name() string                       { return f.name }
func (f *fakeProvider) IsAvailable(_ context.Context) bool { return true }

func TestRegistry_CreateAndList(t *testing.T) {
	reg := NewRegistry[*fakeProvider]()
	reg.RegisterFactory("whisper", func(cfg map[string]any) (*fakeProvider, error) {
		return &fakeProvider{name: "whisper"}, nil
	})
	reg.RegisterFactory("assembly", func(cfg map[string]any) (*fakeProvider, error) {
		return &fakeProvider{name: "assembly"}, nil
	})

	p, err := reg.Create("whisper", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "whisper" {
		t.Errorf("expected whisper, got %s", p.Name())
	}

	if _, err := reg.Create("unknown", nil); err == nil {
		t.Error("expected error for unregistered factory")
	}

	names := reg.List()
	if len(names) != 2 || names[0] != "assembly" || names[1] != "whisper" {
		t.Errorf("expected sorted names [assembly whisper], got %v", names)
	}
}

func TestRegistry_InstanceCache(t *testing.T) {
	reg := NewRegistry[*fakeProvider]()
	if _, ok := reg.Get("whisper"); ok {
		t.Error("expected no cached instance")
	}
	reg.Set("whisper", &fakeProvider{name: "whisper"})
	if inst, ok := reg.Get("whisper"); !ok || inst.Name() != "whisper" {
		t.Error("expected cached instance")
	}
}
