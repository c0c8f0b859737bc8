// Package sheet defines the data model for sprite sheet render jobs:
// actions (named animation clips with a frame interval and optional
// marked frames), frame enumeration, and the metadata document that
// accompanies an assembled sheet.
//
// Everything in this package is pure data and pure functions. The
// scheduler and assembler build on it; nothing here performs I/O.
package sheet
