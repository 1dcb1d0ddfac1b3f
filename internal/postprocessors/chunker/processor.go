// Package chunker provides a sentence-aware text chunking processor.
//
// Text is first cut into sentence units: a unit ends after '.', '!' or '?'
// followed by whitespace, or at a blank line. Units longer than the chunk
// size are split at the last whitespace that fits, or at a rune boundary
// when a single word is too long. Units are then packed greedily into
// chunks of at most the chunk size. Adjacent chunks share whole trailing
// units totalling no more than the overlap.
//
// Every chunk's text is a verbatim slice of the source, so the only text
// lost between chunks is the whitespace separating them.
package chunker

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/edurag/internal/core/domain"
)

// DefaultChunkSize is the default maximum chunk length in bytes.
const DefaultChunkSize = 800

// DefaultChunkOverlap is the default overlap budget in bytes.
const DefaultChunkOverlap = 120

// Processor splits document text into bounded, overlapping chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk length in bytes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap budget between adjacent chunks in bytes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Overlap must leave room for new text in every chunk.
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured maximum chunk length.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap budget.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits the document text into chunks.
// Input chunks are ignored; this processor creates new chunks.
// Empty or whitespace-only text yields no chunks and no error.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	text := doc.Text
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var units []span
	for _, s := range sentences(text) {
		units = append(units, splitLong(text, s, p.chunkSize)...)
	}

	chunks := make([]domain.Chunk, 0, len(units))
	for i := 0; i < len(units); {
		last := i
		for last+1 < len(units) && units[last+1].end-units[i].start <= p.chunkSize {
			last++
		}

		position := len(chunks)
		start, end := units[i].start, units[last].end
		chunks = append(chunks, domain.Chunk{
			ID:       domain.ChunkID(doc.SourceID, position),
			SourceID: doc.SourceID,
			Text:     text[start:end],
			Position: position,
			Offset:   start,
		})

		if last+1 >= len(units) {
			break
		}
		i = p.nextStart(units, i, last)
	}

	return chunks, nil
}

// nextStart picks the first unit of the chunk after units[first:last+1].
// It steps back over trailing units while they fit the overlap budget and
// still leave room for units[last+1], so every chunk adds new text.
func (p *Processor) nextStart(units []span, first, last int) int {
	next := last + 1
	for k := last; k > first; k-- {
		if units[last].end-units[k].start > p.overlap {
			break
		}
		if units[last+1].end-units[k].start > p.chunkSize {
			break
		}
		next = k
	}
	return next
}

// span is a half-open byte range [start, end) of the source text.
type span struct {
	start, end int
}

// sentences cuts text into sentence spans with no leading or trailing
// whitespace.
func sentences(text string) []span {
	var out []span
	start := -1

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		next := i + size

		if start < 0 {
			if unicode.IsSpace(r) {
				i = next
				continue
			}
			start = i
		}

		switch {
		case isTerminator(r):
			for next < len(text) && strings.IndexByte(".!?\"')]", text[next]) >= 0 {
				next++
			}
			if next >= len(text) || spaceAt(text, next) {
				out = append(out, span{start, next})
				start = -1
			}
		case r == '\n' && blankLineFollows(text, next):
			out = append(out, span{start, trimRight(text, start, i)})
			start = -1
		}
		i = next
	}

	if start >= 0 {
		if end := trimRight(text, start, len(text)); end > start {
			out = append(out, span{start, end})
		}
	}
	return out
}

// splitLong breaks a span longer than limit into pieces no longer than
// limit, cutting at whitespace where possible.
func splitLong(text string, s span, limit int) []span {
	var out []span
	for s.end-s.start > limit {
		cut := s.start + limit
		for cut > s.start && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == s.start {
			// A single rune wider than limit.
			_, size := utf8.DecodeRuneInString(text[s.start:])
			cut = s.start + size
		}
		if ws := strings.LastIndexFunc(text[s.start:cut], unicode.IsSpace); ws > 0 {
			cut = s.start + ws
		}

		out = append(out, span{s.start, trimRight(text, s.start, cut)})

		next := cut
		for next < s.end {
			r, size := utf8.DecodeRuneInString(text[next:])
			if !unicode.IsSpace(r) {
				break
			}
			next += size
		}
		s.start = next
	}
	if s.end > s.start {
		out = append(out, s)
	}
	return out
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func spaceAt(text string, i int) bool {
	r, _ := utf8.DecodeRuneInString(text[i:])
	return unicode.IsSpace(r)
}

// blankLineFollows reports whether only horizontal whitespace separates
// position i from the next newline.
func blankLineFollows(text string, i int) bool {
	for ; i < len(text); i++ {
		switch text[i] {
		case ' ', '\t', '\r':
			continue
		case '\n':
			return true
		default:
			return false
		}
	}
	return false
}

// trimRight returns the end of text[start:end] with trailing whitespace
// removed.
func trimRight(text string, start, end int) int {
	return start + len(strings.TrimRightFunc(text[start:end], unicode.IsSpace))
}
