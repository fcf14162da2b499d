// Package render groups the renderers for laid-out graphs.
//
// The layout pipeline produces positions, not pictures. Renderers turn a
// graph or ego view with positions into a visual artifact:
//
//   - [dot]: Graphviz DOT with pinned positions, rendered to SVG in-process
//
// [dot]: github.com/Traubert/nlp-tools/pkg/render/dot
package render
