// SPDX-License-Identifier: MIT

// Package onion drives hierarchical ("onion") orbital optimization: shells
// of increasing basis richness are fit from the inside out, each completed
// shell frozen before its children are optimized. This turns one large
// nonconvex fit into a sequence of smaller, better-conditioned ones with a
// strict monotonicity guarantee on basis richness.
//
// Shells form a forest: each shell has at most one parent, referenced by
// index into the shell list. List order carries no meaning — TopoOrder
// resolves a parent-before-child visiting order from the references alone.
//
// Invariant: a shell's output tensor is always its parent's tensor with
// exactly the shell's own new zeta rows appended; no existing coefficient
// is ever altered.
package onion
