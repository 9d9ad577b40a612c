// Package orbio converts optimized coefficient tensors into real-space
// radial orbitals and serializes them: a numerical-orbital definition file
// (.orb), a coefficient-record file (.param) and a plotted visualization
// (.png, a side artifact, non-authoritative).
//
// File base names are deterministic:
// {elem}_gga_{rcut}au_{ecut}Ry_{suffix}, where the suffix counts radial
// functions per channel ("2S1P" = two s, one p).
package orbio
