package rule

import (
	"spotter/internal/config"
	"spotter/internal/diag"
	"spotter/internal/source"
	"spotter/internal/syntax"
)

// Candidate is a finding as reported by a rule, before suppression
// filtering and location resolution.
type Candidate struct {
	Node        syntax.NodeID
	Span        source.Span
	Message     string
	Corrections []diag.Fix
}

// Context is what a rule sees while analysing one file.
type Context struct {
	File   *syntax.SourceFile
	Config config.RuleConfig
	meta   Meta
	sink   func(Candidate)
}

// NewContext binds a rule to a file. sink receives every reported candidate.
func NewContext(file *syntax.SourceFile, cfg config.RuleConfig, meta Meta, sink func(Candidate)) *Context {
	return &Context{File: file, Config: cfg, meta: meta, sink: sink}
}

// Meta returns the metadata of the rule the context belongs to.
func (c *Context) Meta() Meta { return c.meta }

// Tree is a shortcut for c.File.Tree.
func (c *Context) Tree() *syntax.Tree { return c.File.Tree }

// Node is a shortcut for c.File.Tree.Node(id).
func (c *Context) Node(id syntax.NodeID) *syntax.Node { return c.File.Tree.Node(id) }

// Text returns the source text of id.
func (c *Context) Text(id syntax.NodeID) string { return c.File.Text(id) }

// HasTypes reports whether resolved type information is available.
func (c *Context) HasTypes() bool { return c.File.Tree.HasTypes() }

// Report records a finding covering the whole node.
func (c *Context) Report(id syntax.NodeID, message string, fixes ...diag.Fix) {
	n := c.Node(id)
	if n == nil {
		return
	}
	c.ReportAt(id, n.Span, message, fixes...)
}

// ReportAt records a finding at span, attributed to node id for suppression
// and signature purposes.
func (c *Context) ReportAt(id syntax.NodeID, span source.Span, message string, fixes ...diag.Fix) {
	span.File = c.File.File.ID
	c.sink(Candidate{Node: id, Span: span, Message: message, Corrections: fixes})
}

// ReportSpan records a finding at span, attributed to the innermost node
// covering it. Used by line rules.
func (c *Context) ReportSpan(span source.Span, message string, fixes ...diag.Fix) {
	c.ReportAt(c.File.Tree.InnermostAt(span.Start, span.End), span, message, fixes...)
}
