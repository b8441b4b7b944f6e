// Package markdown turns page sources into HTML. The Converter implements the
// site's restricted markdown dialect (single pass, no inline HTML) and the
// GoldmarkParser offers a CommonMark engine behind the same renderer contract.
// The package also owns front matter extraction and filesystem discovery of
// page documents.
package markdown
