// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package sexp

import "fmt"

// Span represents a contiguous slice of the original input.  Retaining
// physical indices (rather than a string slice) lets us later determine the
// enclosing line/column for error reporting.
type Span struct {
	start int
	end   int
}

// NewSpan constructs a new span whilst checking the internal invariants are
// maintained.
func NewSpan(start, end int) Span {
	if start > end {
		panic("invalid span")
	}

	return Span{start, end}
}

// Start returns the starting index of this span in the original input.
func (p *Span) Start() int { return p.start }

// End returns one past the last index of this span in the original input.
func (p *Span) End() int { return p.end }

// Length returns the number of characters covered by this span.
func (p *Span) Length() int { return p.end - p.start }

// Source represents an SMT-LIB script being read, either from a file or from
// an interactive stream.  Unlike a compiler's source file, a Source is not
// necessarily backed by disk: when commands are typed at a terminal, each
// command's text is appended as it is read so that error spans still resolve
// to real line/column positions.
type Source struct {
	// Name used purely for diagnostics (a filename, or "<stdin>").
	name string
	// Contents read so far.
	contents []rune
}

// NewSource constructs a source over an initial body of text (e.g. an
// entire script file read up front).
func NewSource(name string, text []byte) *Source {
	return &Source{name, []rune(string(text))}
}

// Name returns the diagnostic name of this source.
func (s *Source) Name() string { return s.name }

// Contents returns the contents of this source read so far.
func (s *Source) Contents() []rune { return s.contents }

// Append adds more text to this source, for incremental (stdin) reading.
func (s *Source) Append(text []rune) { s.contents = append(s.contents, text...) }

// SyntaxError constructs a syntax error over a given span of this source.
func (s *Source) SyntaxError(span Span, msg string) *SyntaxError {
	return &SyntaxError{s, span, msg}
}

// Line provides information about a single line within a Source, used when
// rendering "line L, column C" error messages.
type Line struct {
	text   []rune
	span   Span
	number int
}

// String returns the text of this line.
func (p *Line) String() string { return string(p.text[p.span.start:p.span.end]) }

// Number returns the 1-indexed line number.
func (p *Line) Number() int { return p.number }

// Column returns the 1-indexed column of the given absolute offset within
// this line.
func (p *Line) Column(offset int) int { return offset - p.span.start + 1 }

// FindFirstEnclosingLine determines the line enclosing the start of a span.
// If the position is beyond the end of the source, the last line is
// returned.
func (s *Source) FindFirstEnclosingLine(span Span) Line {
	var (
		num   = 1
		start = 0
	)

	for i := 0; i < len(s.contents); i++ {
		if i == span.start {
			end := findEndOfLine(span.start, s.contents)
			return Line{s.contents, Span{start, end}, num}
		} else if s.contents[i] == '\n' {
			num++
			start = i + 1
		}
	}

	return Line{s.contents, Span{start, len(s.contents)}, num}
}

func findEndOfLine(index int, text []rune) int {
	for i := index; i < len(text); i++ {
		if text[i] == '\n' {
			return i
		}
	}

	return len(text)
}

// SyntaxError is a structured error retaining the span into the source where
// it occurred, so a command driver can render "at line L, column C" when the
// line/column error-reporting flag is enabled.
type SyntaxError struct {
	source *Source
	span   Span
	msg    string
}

// Source returns the underlying source this error refers to.
func (p *SyntaxError) Source() *Source { return p.source }

// Span returns the span of the original text this error covers.
func (p *SyntaxError) Span() Span { return p.span }

// Message returns the underlying message, without position information.
func (p *SyntaxError) Message() string { return p.msg }

// Error implements the error interface, rendering "at line L, column C:
// <message>" as required by the command driver's error formatting.
func (p *SyntaxError) Error() string {
	line := p.source.FindFirstEnclosingLine(p.span)
	return fmt.Sprintf("at line %d, column %d: %s", line.Number(), line.Column(p.span.Start()), p.msg)
}
