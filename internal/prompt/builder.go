// Package prompt turns a generation mode plus seller-supplied text into the
// instruction sent to the image provider, together with an immutable audit
// payload persisted alongside the resulting output asset.
package prompt

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/domain"
)

// Version is the schema version stamped into every audit payload.
const Version = "2026-03"

// Inputs carries the free-text fields a seller may provide.
type Inputs struct {
	ProductDescription string   `json:"product_description"`
	ProductCategory    string   `json:"product_category,omitempty"`
	BrandTone          string   `json:"brand_tone,omitempty"`
	Scene              string   `json:"scene,omitempty"`
	Constraints        []string `json:"constraints,omitempty"`
}

// Payload is the append-only audit record of exactly what was sent to the
// provider. It is stored verbatim in Asset.PromptPayload.
type Payload struct {
	Mode                domain.Mode `json:"mode"`
	TemplateID          string      `json:"template_id"`
	PromptVersion       string      `json:"prompt_version"`
	Inputs              Inputs      `json:"inputs"`
	SanitizedInputs     Inputs      `json:"sanitized_inputs"`
	Constraints         []string    `json:"constraints"`
	ComplianceWarnings  []string    `json:"compliance_warnings,omitempty"`
	ComplianceOverrides []string    `json:"compliance_overrides,omitempty"`
	BuiltAt             time.Time   `json:"built_at"`
}

type template struct {
	id          string
	intro       string
	sceneLine   string
	constraints []string
}

var templates = map[domain.Mode]template{
	domain.ModeMainWhite: {
		id:    "main_white.v3",
		intro: "Re-shoot the supplied product photo as a marketplace main image on a pure white seamless background (#FFFFFF).",
		constraints: []string{
			"Background must be pure white with a soft natural shadow under the product.",
			"Do not add any text, labels, logos, or watermarks.",
			"No props or extraneous objects; the product is the only subject.",
			"Preserve the product's shape, color, and markings exactly.",
		},
	},
	domain.ModeLifestyle: {
		id:        "lifestyle.v2",
		intro:     "Place the supplied product into a realistic lifestyle scene for social media marketing.",
		sceneLine: "Scene direction: %s.",
		constraints: []string{
			"Do not invent accessories, attachments, or variants the product does not have.",
			"Keep the product itself unaltered; only the environment changes.",
			"Lighting must look natural and consistent between product and scene.",
		},
	},
	domain.ModeFeatureCallout: {
		id:        "feature_callout.v2",
		intro:     "Create a feature-callout marketing image of the supplied product with clean annotation lines highlighting its visible features.",
		sceneLine: "Highlight focus: %s.",
		constraints: []string{
			"Callouts may only describe features visible in the source photo; never fabricate specifications.",
			"Use short neutral labels; no pricing, ratings, or superlatives.",
			"Keep annotation styling minimal and legible at thumbnail size.",
		},
	},
	domain.ModePackaging: {
		id:        "packaging.v3",
		intro:     "Render the supplied product as a polished packaging shot suitable for a storefront listing.",
		sceneLine: "Packaging direction: %s.",
		constraints: []string{
			"Do not render certification seals, award badges, or regulatory marks that are not physically present on the product.",
			"Do not add ingredient, nutrition, or legal text.",
			"Keep brand elements exactly as they appear on the source packaging.",
		},
	},
}

// complianceRule flags a risky marketing claim and supplies neutral wording.
type complianceRule struct {
	pattern     *regexp.Regexp
	label       string
	replacement string
}

var complianceRules = []complianceRule{
	{regexp.MustCompile(`(?i)\busda[- ]?organic\b`), "certification claim: USDA organic", "organically styled"},
	{regexp.MustCompile(`(?i)\bfda[- ]?(approved|approval|cleared)\b`), "certification claim: FDA", "quality"},
	{regexp.MustCompile(`(?i)\b(certified|certification)\b`), "certification claim", "premium"},
	{regexp.MustCompile(`(?i)\bclinically (proven|tested)\b`), "medical claim", "well regarded"},
	{regexp.MustCompile(`(?i)\baward[- ]?winning\b`), "award claim", "popular"},
	{regexp.MustCompile(`(?i)\b(official )?(seal|badge)s?\b`), "badge or seal request", "clean label"},
	{regexp.MustCompile(`(?i)\bdoctor[- ]recommended\b`), "medical endorsement claim", "trusted"},
	{regexp.MustCompile(`(?i)\b#?1 (rated|best ?seller)\b`), "ranking claim", "customer favorite"},
	{regexp.MustCompile(`(?i)\b(cures?|heals?|treats?) \w+`), "health outcome claim", "supports wellbeing"},
}

// Build selects the template for mode, substitutes the seller's inputs, and
// appends the mode's fixed compliance constraints. Free text is scanned
// against the denylist: flagged phrases are replaced with neutral wording and
// recorded in the payload, but generation is never blocked. Pure function;
// deterministic apart from the BuiltAt timestamp.
func Build(mode domain.Mode, in Inputs) (string, Payload, error) {
	tpl, ok := templates[mode]
	if !ok {
		return "", Payload{}, domain.ErrInvalidMode
	}
	if strings.TrimSpace(in.ProductDescription) == "" {
		return "", Payload{}, fmt.Errorf("%w: product_description is required", domain.ErrInvalidPrompt)
	}

	sanitized, warnings, overrides := sanitize(in)

	var lines []string
	lines = append(lines, tpl.intro)
	lines = append(lines, fmt.Sprintf("Product: %s.", sanitized.ProductDescription))
	if c := strings.TrimSpace(sanitized.ProductCategory); c != "" {
		lines = append(lines, fmt.Sprintf("Category: %s.", c))
	}
	if t := strings.TrimSpace(sanitized.BrandTone); t != "" {
		lines = append(lines, fmt.Sprintf("Brand tone: %s.", t))
	}
	if s := strings.TrimSpace(sanitized.Scene); s != "" && tpl.sceneLine != "" {
		lines = append(lines, fmt.Sprintf(tpl.sceneLine, s))
	}
	for _, c := range sanitized.Constraints {
		if c = strings.TrimSpace(c); c != "" {
			lines = append(lines, fmt.Sprintf("Seller constraint: %s.", c))
		}
	}
	constraints := append([]string(nil), tpl.constraints...)
	for _, c := range constraints {
		lines = append(lines, "Constraint: "+c)
	}

	payload := Payload{
		Mode:                mode,
		TemplateID:          tpl.id,
		PromptVersion:       Version,
		Inputs:              in,
		SanitizedInputs:     sanitized,
		Constraints:         constraints,
		ComplianceWarnings:  warnings,
		ComplianceOverrides: overrides,
		BuiltAt:             time.Now().UTC(),
	}
	return strings.Join(lines, "\n"), payload, nil
}

func sanitize(in Inputs) (Inputs, []string, []string) {
	var warnings, overrides []string

	clean := func(field, text string) string {
		out := text
		for _, rule := range complianceRules {
			if !rule.pattern.MatchString(out) {
				continue
			}
			matched := rule.pattern.FindString(out)
			warnings = append(warnings, fmt.Sprintf("%s in %s: %q", rule.label, field, matched))
			out = rule.pattern.ReplaceAllString(out, rule.replacement)
			overrides = append(overrides, fmt.Sprintf("%s: %q -> %q", field, matched, rule.replacement))
		}
		return out
	}

	sanitized := Inputs{
		ProductDescription: clean("product_description", in.ProductDescription),
		ProductCategory:    clean("product_category", in.ProductCategory),
		BrandTone:          clean("brand_tone", in.BrandTone),
		Scene:              clean("scene", in.Scene),
	}
	for i, c := range in.Constraints {
		sanitized.Constraints = append(sanitized.Constraints, clean(fmt.Sprintf("constraints[%d]", i), c))
	}
	return sanitized, warnings, overrides
}
