// Package pipeline orchestrates one full basis-generation run: it loads a
// YAML orbital plan, and for every cutoff radius matches reference folders,
// resolves zeta counts, builds the initial guess, drives the hierarchical
// optimizer and serializes one orbital file set per level.
//
// Cutoff radii are processed independently; nothing is shared across them,
// so a failure aborts only the radius it occurred in.
package pipeline
