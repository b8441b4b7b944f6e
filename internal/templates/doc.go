// Package templates fills {{group.key}} placeholders from a grouped key/value
// store.
//
// A placeholder is "{{ group.key }}" or "{{ group }}"; the bare form selects the
// group's "_html" key. Whitespace inside the delimiters is ignored and spans
// that do not name a reference are left untouched. Resolved values are
// expanded recursively, cycles are reported as *CycleError and unknown
// references as *ResolutionError. Keys missing from the "page" group fall back
// to the "site" group.
package templates
