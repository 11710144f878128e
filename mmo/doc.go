// Package mmo decodes MMIX object (MMO) images into source line information.
//
// An MMO image is a stream of 4-byte big-endian tetras. Tetras whose first
// byte is the escape value (0x98) are lopcodes: metadata records that move
// the load location, set the source line, mark special data, and so on.
// Every other tetra is loaded at the current location.
//
// Decode walks the stream once and records, for each loaded instruction
// tetra, which source line produced it. The result is a LineMap that answers
// both address to line and line to address queries.
package mmo
