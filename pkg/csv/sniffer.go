// Package csv provides dialect detection and header sniffing.
package csv

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	candidateDelimiters = []rune{',', '\t', ';', '|'}
	candidateQuotes     = []rune{'"', '\''}

	headerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`),      // snake_case or identifier
		regexp.MustCompile(`^[a-zA-Z]+[A-Z][a-zA-Z]*$`),     // camelCase
		regexp.MustCompile(`^[A-Z][a-z]+([ ][A-Z][a-z]+)*$`), // Title Case
	}
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
		regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`),
	}
)

// Sniffer detects the dialect (quote, delimiter, escape) of a sample and
// whether its first row looks like a header.
type Sniffer struct {
	sample      string
	lines       []string
	quote       rune
	quoteEscape rune
	delimiter   rune
	hasHeader   bool
	analyzed    bool
}

// NewSniffer creates a new Sniffer with a sample of input.
// For best results, provide at least 2-3 lines of data.
func NewSniffer(sample string) *Sniffer {
	return &Sniffer{sample: sample}
}

// DetectFormat returns the Format detected from sample. Characters that
// cannot be detected keep their defaults.
func DetectFormat(sample string) Format {
	return NewSniffer(sample).Format()
}

// analyze performs dialect detection on the sample.
func (s *Sniffer) analyze() {
	if s.analyzed {
		return
	}
	s.lines = sampleLines(s.sample)
	s.quote = s.detectQuote()
	s.quoteEscape = s.detectQuoteEscape()
	s.delimiter = s.detectDelimiter()
	s.hasHeader = s.detectHeader()
	s.analyzed = true
}

// Format returns the detected dialect.
func (s *Sniffer) Format() Format {
	s.analyze()
	return NewFormat().
		WithDelimiter(s.delimiter).
		WithQuote(s.quote).
		WithQuoteEscape(s.quoteEscape)
}

// DetectDelimiter returns the detected field delimiter.
// Common delimiters checked: comma, tab, semicolon, pipe.
func (s *Sniffer) DetectDelimiter() rune {
	s.analyze()
	return s.delimiter
}

// DetectQuote returns the detected quote character, '"' or '\''.
func (s *Sniffer) DetectQuote() rune {
	s.analyze()
	return s.quote
}

// HasHeader returns true if the first row appears to be a header.
func (s *Sniffer) HasHeader() bool {
	s.analyze()
	return s.hasHeader
}

// sampleLines splits the sample into non-empty lines.
func sampleLines(sample string) []string {
	raw := strings.Split(strings.ReplaceAll(sample, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// detectQuote picks the candidate that most often opens a field, i.e.
// appears at the start of a line or right after a candidate delimiter.
func (s *Sniffer) detectQuote() rune {
	best, bestScore := rune(DefaultQuote), 0
	for _, q := range candidateQuotes {
		score := 0
		for _, line := range s.lines {
			prev := '\n'
			for _, ch := range line {
				if ch == q && (prev == '\n' || isCandidateDelimiter(prev)) {
					score++
				}
				prev = ch
			}
		}
		if score > bestScore {
			best, bestScore = q, score
		}
	}
	return best
}

// detectQuoteEscape returns '\\' when quotes are backslash escaped and never
// doubled, otherwise the quote itself.
func (s *Sniffer) detectQuoteEscape() rune {
	q := string(s.quote)
	if strings.Contains(s.sample, `\`+q) && !strings.Contains(s.sample, q+q) {
		return '\\'
	}
	return s.quote
}

func isCandidateDelimiter(r rune) bool {
	for _, d := range candidateDelimiters {
		if r == d {
			return true
		}
	}
	return false
}

// detectDelimiter performs the actual delimiter detection.
func (s *Sniffer) detectDelimiter() rune {
	if len(s.lines) == 0 {
		return DefaultDelimiter
	}

	scores := make(map[rune]int)

	for _, delim := range candidateDelimiters {
		counts := make([]int, 0, len(s.lines))
		for _, line := range s.lines {
			counts = append(counts, s.countDelimiter(line, delim))
		}

		// Score based on consistency across lines
		if counts[0] > 0 {
			consistent := true
			for i := 1; i < len(counts); i++ {
				if counts[i] != counts[0] {
					consistent = false
					break
				}
			}
			if consistent {
				scores[delim] = counts[0] * 10 // Bonus for consistency
			} else {
				scores[delim] = counts[0]
			}
		}
	}

	// Ties resolve in candidate order
	best := rune(DefaultDelimiter)
	bestScore := 0
	for _, delim := range candidateDelimiters {
		if scores[delim] > bestScore {
			best = delim
			bestScore = scores[delim]
		}
	}

	return best
}

// countDelimiter counts occurrences of a delimiter, ignoring quoted sections.
func (s *Sniffer) countDelimiter(line string, delim rune) int {
	count := 0
	inQuotes := false

	for _, ch := range line {
		if ch == s.quote {
			inQuotes = !inQuotes
		} else if ch == delim && !inQuotes {
			count++
		}
	}

	return count
}

// detectHeader uses heuristics to determine if first row is a header.
func (s *Sniffer) detectHeader() bool {
	if len(s.lines) < 2 {
		return false // Need at least 2 lines to compare
	}

	fields := s.splitByDelimiter(s.lines[0])

	// Headers are typically non-numeric identifiers; data contains
	// numbers, dates and e-mail addresses.
	headerScore := 0
	dataScore := 0
	for _, field := range fields {
		field = strings.Trim(strings.TrimSpace(field), string(s.quote))
		if isLikelyHeader(field) {
			headerScore++
		}
		if isLikelyData(field) {
			dataScore++
		}
	}

	return headerScore > dataScore
}

// isLikelyHeader checks if a field looks like a header name.
func isLikelyHeader(s string) bool {
	if s == "" || isNumeric(s) {
		return false
	}
	for _, pattern := range headerPatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// isLikelyData checks if a field looks like data rather than a header.
func isLikelyData(s string) bool {
	if s == "" {
		return false
	}
	if isNumeric(s) || strings.Contains(s, "@") {
		return true
	}
	for _, pattern := range datePatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// isNumeric checks if a string represents a number.
func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}

	// Allow leading minus for negative numbers
	if s[0] == '-' {
		s = s[1:]
	}

	hasDot := false
	for _, ch := range s {
		if ch == '.' {
			if hasDot {
				return false
			}
			hasDot = true
		} else if !unicode.IsDigit(ch) {
			return false
		}
	}

	return len(s) > 0
}

// splitByDelimiter splits a line by the detected delimiter, respecting quotes.
func (s *Sniffer) splitByDelimiter(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for _, ch := range line {
		if ch == s.quote {
			inQuotes = !inQuotes
			current.WriteRune(ch)
		} else if ch == s.delimiter && !inQuotes {
			fields = append(fields, current.String())
			current.Reset()
		} else {
			current.WriteRune(ch)
		}
	}

	return append(fields, current.String())
}

// LowercaseHeader converts headers to lowercase.
func LowercaseHeader(s string) string {
	return strings.ToLower(s)
}

// UppercaseHeader converts headers to uppercase.
func UppercaseHeader(s string) string {
	return strings.ToUpper(s)
}

// SnakeCaseHeader converts headers to snake_case.
func SnakeCaseHeader(s string) string {
	var result strings.Builder
	prevWasSpace := false
	for i, ch := range s {
		if ch == ' ' {
			if result.Len() > 0 && !prevWasSpace {
				result.WriteRune('_')
			}
			prevWasSpace = true
			continue
		}
		if unicode.IsUpper(ch) && i > 0 && !prevWasSpace {
			result.WriteRune('_')
		}
		result.WriteRune(unicode.ToLower(ch))
		prevWasSpace = false
	}
	return result.String()
}
