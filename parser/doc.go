// Package parser recovers the numbering hierarchy of a highway specifications manual from
// already-extracted text.
//
// The parser is a pipeline of independent pattern matchers rather than a state machine:
//
//   - Normalize: line endings, page markers and blank-line runs
//   - DetectDivisions: presence test per known division
//   - ExtractSections: strict "SECTION nnn\nTITLE" headers, then loose "nnn TITLE" headers
//   - ExtractSubsections: three nested "nnn.n-Title:" levels inside each section
//   - ExtractPayItems: six-digit item lines after "PAY ITEMS:" markers, then globally
//   - ExtractCrossReferences: "Section nnn[.n]*" mentions in subsection content
//   - LinkPayItems: attaches item codes to their sections
//
// Conflicts are resolved first-writer-wins by key and every candidate is validated with
// a containment check. Malformed input yields fewer entities, never an error.
package parser
