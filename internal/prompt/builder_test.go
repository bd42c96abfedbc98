package prompt

import (
	"strings"
	"testing"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/domain"
)

func TestBuildMainWhite(t *testing.T) {
	text, payload, err := Build(domain.ModeMainWhite, Inputs{ProductDescription: "wireless headphones"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(text, "pure white") {
		t.Errorf("prompt missing white-background instruction:\n%s", text)
	}
	if !strings.Contains(text, "Do not add any text") {
		t.Errorf("prompt missing no-text constraint:\n%s", text)
	}
	if !strings.Contains(text, "No props") {
		t.Errorf("prompt missing no-props constraint:\n%s", text)
	}
	if payload.Mode != domain.ModeMainWhite {
		t.Errorf("payload mode = %q", payload.Mode)
	}
	if len(payload.Constraints) == 0 {
		t.Error("payload constraints empty")
	}
	if payload.PromptVersion != Version {
		t.Errorf("payload version = %q", payload.PromptVersion)
	}
	if len(payload.ComplianceWarnings) != 0 {
		t.Errorf("unexpected warnings: %v", payload.ComplianceWarnings)
	}
}

func TestBuildPackagingFlagsFakeCertifications(t *testing.T) {
	_, payload, err := Build(domain.ModePackaging, Inputs{
		ProductDescription: "USDA organic certified coffee with FDA approval",
		Constraints:        []string{"show certification seals"},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(payload.ComplianceWarnings) == 0 && len(payload.ComplianceOverrides) == 0 {
		t.Fatal("certification language passed through without warnings or overrides")
	}
	joined := strings.Join(payload.ComplianceWarnings, "; ")
	if !strings.Contains(strings.ToLower(joined), "certification") {
		t.Errorf("warnings do not flag certification language: %v", payload.ComplianceWarnings)
	}
	sanitized := payload.SanitizedInputs.ProductDescription
	if strings.Contains(strings.ToLower(sanitized), "fda") || strings.Contains(strings.ToLower(sanitized), "usda") {
		t.Errorf("sanitized description still contains regulator names: %q", sanitized)
	}
	if payload.Inputs.ProductDescription != "USDA organic certified coffee with FDA approval" {
		t.Error("original inputs must be preserved verbatim in the audit payload")
	}
}

func TestBuildUnknownMode(t *testing.T) {
	if _, _, err := Build(domain.Mode("hero_banner"), Inputs{ProductDescription: "mug"}); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestBuildRequiresDescription(t *testing.T) {
	if _, _, err := Build(domain.ModeLifestyle, Inputs{Scene: "beach picnic"}); err == nil {
		t.Fatal("expected error for missing product description")
	}
}

func TestBuildLifestyleUsesScene(t *testing.T) {
	text, payload, err := Build(domain.ModeLifestyle, Inputs{
		ProductDescription: "ceramic travel mug",
		Scene:              "morning campsite by a lake",
		BrandTone:          "warm and adventurous",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(text, "morning campsite by a lake") {
		t.Errorf("scene not substituted:\n%s", text)
	}
	if !strings.Contains(text, "Do not invent accessories") {
		t.Errorf("missing no-invented-accessories constraint:\n%s", text)
	}
	if payload.TemplateID != "lifestyle.v2" {
		t.Errorf("template id = %q", payload.TemplateID)
	}
}
