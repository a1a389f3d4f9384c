package workflow

import (
	"errors"
	"testing"

	"github.com/marcus/appman/internal/models"
)

func TestRenderFormInstall(t *testing.T) {
	tests := []struct {
		name        string
		desc        models.ActionDescriptor
		wantTypes   []models.TransferType
		wantDefault models.TransferType
	}{
		{
			name:        "copy only",
			desc:        models.ActionDescriptor{DefaultDestination: "Sandbox", AllowsCopy: true},
			wantTypes:   []models.TransferType{models.TransferCopy, models.TransferMove},
			wantDefault: models.TransferMove,
		},
		{
			name:        "link only",
			desc:        models.ActionDescriptor{DefaultDestination: "Main", AllowsLink: true},
			wantTypes:   []models.TransferType{models.TransferLink, models.TransferLinkPartial},
			wantDefault: models.TransferLink,
		},
		{
			name:        "both",
			desc:        models.ActionDescriptor{AllowsCopy: true, AllowsLink: true},
			wantTypes:   models.AllTransferTypes,
			wantDefault: models.TransferMove,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := NewCatalog(&models.AppDetail{Actions: []models.ActionEntry{descEntry("install", tt.desc)}})
			form, err := RenderForm("install", cat)
			if err != nil {
				t.Fatalf("RenderForm: %v", err)
			}
			if len(form.Types) != len(tt.wantTypes) {
				t.Fatalf("Types = %v, want %v", form.Types, tt.wantTypes)
			}
			for i := range tt.wantTypes {
				if form.Types[i] != tt.wantTypes[i] {
					t.Errorf("Types[%d] = %s, want %s", i, form.Types[i], tt.wantTypes[i])
				}
			}
			if form.DefaultType != tt.wantDefault {
				t.Errorf("DefaultType = %s, want %s", form.DefaultType, tt.wantDefault)
			}
			if !form.HasDestination || form.Destination != tt.desc.DefaultDestination {
				t.Errorf("destination = %q (has=%v)", form.Destination, form.HasDestination)
			}
		})
	}
}

func TestRenderFormConfigurationErrors(t *testing.T) {
	tests := []struct {
		name  string
		entry models.ActionEntry
	}{
		{"boolean install", boolEntry("install", true)},
		{"missing fields", rawEntry("install", `{"installed":false}`)},
		{"nothing allowed", descEntry("install", models.ActionDescriptor{DefaultDestination: "x"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := NewCatalog(&models.AppDetail{Actions: []models.ActionEntry{tt.entry}})
			_, err := RenderForm("install", cat)
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
			if ce.Action != "install" {
				t.Errorf("Action = %q", ce.Action)
			}
		})
	}
}

func TestRenderFormOtherActions(t *testing.T) {
	cat := NewCatalog(wikiDetail(true))
	for _, action := range []string{"uninstall", "reindex"} {
		form, err := RenderForm(action, cat)
		if err != nil {
			t.Fatalf("RenderForm(%s): %v", action, err)
		}
		if !form.Fieldless() {
			t.Errorf("%s: expected no fields, got %+v", action, form)
		}
	}
}

func TestFormStateLinkPartialToggle(t *testing.T) {
	cat := NewCatalog(&models.AppDetail{Actions: []models.ActionEntry{
		descEntry("install", models.ActionDescriptor{AllowsCopy: true, AllowsLink: true}),
	}})
	desc, err := RenderForm("install", cat)
	if err != nil {
		t.Fatal(err)
	}
	fs := NewFormState("wiki", desc)
	if fs.Type != models.TransferMove || fs.Topics != nil {
		t.Fatalf("unexpected initial state: %+v", fs)
	}

	if err := fs.SetType(models.TransferLinkPartial); err != nil {
		t.Fatal(err)
	}
	if fs.Topics == nil || len(fs.Topics) != 0 {
		t.Fatalf("expected empty topic region, got %v", fs.Topics)
	}
	fs.SetTopics([]models.Topic{{ID: "Home", Disposition: models.DispositionIgnore}})
	if err := fs.SetDisposition("Home", models.DispositionLink); err != nil {
		t.Fatal(err)
	}

	// Same type again keeps topics
	if err := fs.SetType(models.TransferLinkPartial); err != nil {
		t.Fatal(err)
	}
	if len(fs.Topics) != 1 {
		t.Fatalf("reselecting linkpartial dropped topics")
	}

	if err := fs.SetType(models.TransferCopy); err != nil {
		t.Fatal(err)
	}
	if fs.Topics != nil {
		t.Errorf("topics survived leaving linkpartial: %v", fs.Topics)
	}
	if err := fs.SetType(models.TransferLinkPartial); err != nil {
		t.Fatal(err)
	}
	if len(fs.Topics) != 0 {
		t.Errorf("topics restored from memory: %v", fs.Topics)
	}
}

func TestFormStateRejectsUnofferedType(t *testing.T) {
	cat := NewCatalog(wikiDetail(false))
	desc, _ := RenderForm("install", cat)
	fs := NewFormState("wiki", desc)
	if err := fs.SetType(models.TransferLink); err == nil {
		t.Error("expected error for link when only copy is allowed")
	}
	if fs.Type != models.TransferMove {
		t.Errorf("type changed to %s", fs.Type)
	}
}

func TestCycleDisposition(t *testing.T) {
	fs := &FormState{Type: models.TransferLinkPartial, Topics: []models.Topic{{ID: "A", Disposition: models.DispositionIgnore}}}
	want := []models.Disposition{models.DispositionCopy, models.DispositionLink, models.DispositionIgnore}
	for _, w := range want {
		fs.CycleDisposition(0)
		if fs.Topics[0].Disposition != w {
			t.Fatalf("disposition = %s, want %s", fs.Topics[0].Disposition, w)
		}
	}
	fs.CycleDisposition(5) // out of range is ignored
}

func TestFormStateClone(t *testing.T) {
	fs := &FormState{
		Form:   &FormDescription{Types: []models.TransferType{models.TransferLinkPartial}},
		Type:   models.TransferLinkPartial,
		Topics: []models.Topic{{ID: "A"}},
	}
	c := fs.Clone()
	c.Topics[0].Disposition = models.DispositionCopy
	c.Form.Types[0] = models.TransferCopy
	if fs.Topics[0].Disposition != "" || fs.Form.Types[0] != models.TransferLinkPartial {
		t.Error("clone shares memory with original")
	}
	var nilState *FormState
	if nilState.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}
