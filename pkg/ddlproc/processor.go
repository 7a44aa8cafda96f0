// Package ddlproc implements the serial DDL string processor
// described in spec.md §5: statements are accumulated into a buffer
// one piece at a time, then handed to a backend as a single unit.
// Processors form a strict tree — never a cycle — and every buffer
// mutation fans out to subprocessors in declaration order.
package ddlproc

import (
	"context"
	"log/slog"
	"strings"
)

// DefaultTerminator is appended to a statement before a Backend that
// cares about terminators (StreamBackend) writes it out.
const DefaultTerminator = ";"

// Backend executes (or otherwise consumes) one fully-buffered
// statement. DirectBackend and StreamBackend are the two shipped
// implementations; a Processor is parameterized by a Backend rather
// than subclassed, Go's answer to the original's doprocessbuffer
// template-method override.
type Backend interface {
	Process(ctx context.Context, buffer string) error
}

// Processor accumulates SQL text into a buffer and, on ProcessBuffer,
// hands the buffer to its Backend and clears it regardless of outcome.
// Subprocessors added with AddSubprocessor receive every AddBuffer/
// AddLine/TruncateLastComma/ProcessBuffer call a Processor itself
// receives, so a statement can be fed to several backends (e.g. a
// direct executor and a file mirror) at once.
type Processor struct {
	buffer      string
	terminator  string
	logger      *slog.Logger
	backend     Backend
	subprocessors []*Processor
}

// New creates a Processor with the given backend. A nil logger
// disables logging entirely.
func New(backend Backend, logger *slog.Logger) *Processor {
	return &Processor{terminator: DefaultTerminator, logger: logger, backend: backend}
}

// AddSubprocessor attaches a child processor. Never create a cycle —
// only build trees; AddBuffer/ProcessBuffer recurse into subprocessors
// without cycle protection, matching the original's documented
// contract.
func (p *Processor) AddSubprocessor(child *Processor) *Processor {
	p.subprocessors = append(p.subprocessors, child)
	return p
}

// AddBuffer appends text to the buffer and fans out to subprocessors.
func (p *Processor) AddBuffer(txt string) *Processor {
	p.buffer += txt
	for _, sub := range p.subprocessors {
		sub.AddBuffer(txt)
	}
	return p
}

// AddLine appends a line (plus a trailing newline) and fans out.
func (p *Processor) AddLine(line string) *Processor {
	p.buffer += line + "\n"
	for _, sub := range p.subprocessors {
		sub.AddLine(line)
	}
	return p
}

// TruncateLastComma drops everything from (and including) the last
// comma in the buffer — used after building a comma-separated list
// whose final item turned out to be optional.
func (p *Processor) TruncateLastComma() *Processor {
	if idx := strings.LastIndexByte(p.buffer, ','); idx >= 0 {
		p.buffer = p.buffer[:idx]
	}
	for _, sub := range p.subprocessors {
		sub.TruncateLastComma()
	}
	return p
}

// ProcessBuffer hands the current buffer to the backend and clears it,
// logging success at info level and failure at debug (ignored) or
// error (surfaced) level, then recurses into subprocessors. When
// ignoreExceptions is false, a backend error is returned to the
// caller; when true, it's logged and swallowed.
func (p *Processor) ProcessBuffer(ctx context.Context, ignoreExceptions bool) error {
	summary := summarize(p.buffer)
	err := p.backend.Process(ctx, p.buffer)
	p.buffer = ""

	if p.logger != nil {
		switch {
		case err == nil:
			p.logger.Info(summary)
		case ignoreExceptions:
			p.logger.Debug(summary, "error", err)
		default:
			p.logger.Error(summary, "error", err)
		}
	}
	if err != nil && !ignoreExceptions {
		return err
	}

	for _, sub := range p.subprocessors {
		if subErr := sub.ProcessBuffer(ctx, ignoreExceptions); subErr != nil {
			return subErr
		}
	}
	return nil
}

func summarize(buffer string) string {
	s := strings.TrimLeft(buffer, " \t\r\n")
	if idx := strings.IndexAny(s, "\r\n"); idx > 0 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)
	if len(s) > 70 {
		s = s[:70]
	}
	return s
}
