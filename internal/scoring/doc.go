// Package scoring grades nutrition records.
//
// Two Nutri-Score policies are available behind the Policy interface: a
// tiered threshold policy (the default) and a continuous policy tuned for
// Indian packaging guidelines. They are alternatives, not refinements of
// each other, and may disagree for the same product.
//
// ClassifyNova estimates the NOVA processing group from additive and
// ingredient-analysis evidence.
package scoring
