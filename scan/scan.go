/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package scan has the low-level scanning shared by the rule
// language: tokens, parenthesis matching, and splitting at top-level
// delimiters.
package scan

import (
	"strconv"
	"strings"
)

// Delimiters is the set of single-character tokens.
//
// '#' is the unary minus sentinel.  '%' is a token but not an
// operator.
const Delimiters = ",+-*/%^()#"

// IsDelimiter reports whether c is one of Delimiters.
func IsDelimiter(c byte) bool {
	return strings.IndexByte(Delimiters, c) >= 0
}

// NextToken returns the token that starts at pos: either a single
// delimiter character or the longest run of non-delimiters.  Returns
// "" when pos is past the end of s.
func NextToken(s string, pos int) string {
	if pos < 0 || len(s) <= pos {
		return ""
	}
	if IsDelimiter(s[pos]) {
		return s[pos : pos+1]
	}
	end := pos
	for end < len(s) && !IsDelimiter(s[end]) {
		end++
	}
	return s[pos:end]
}

// Tokens returns all the tokens of s in order.
func Tokens(s string) []string {
	var acc []string
	for pos := 0; pos < len(s); {
		tok := NextToken(s, pos)
		acc = append(acc, tok)
		pos += len(tok)
	}
	return acc
}

// UnbalancedError reports a parenthesis with no partner.
type UnbalancedError struct {
	Text string
	// Pos is the offset of the offending parenthesis.
	Pos int
}

func (e *UnbalancedError) Error() string {
	what := "unclosed '('"
	if e.Pos < len(e.Text) && e.Text[e.Pos] == ')' {
		what = "unmatched ')'"
	}
	return what + ` at ` + strconv.Itoa(e.Pos) + ` in "` + e.Text + `"`
}

// Balanced returns an *UnbalancedError if the parentheses in s do not
// pair up.
func Balanced(s string) error {
	var open []int
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			open = append(open, i)
		case ')':
			if len(open) == 0 {
				return &UnbalancedError{Text: s, Pos: i}
			}
			open = open[:len(open)-1]
		}
	}
	if 0 < len(open) {
		return &UnbalancedError{Text: s, Pos: open[len(open)-1]}
	}
	return nil
}

// MatchingParen returns the offset of the ')' that closes the '(' at
// open, or -1.
func MatchingParen(s string, open int) int {
	if open < 0 || len(s) <= open || s[open] != '(' {
		return -1
	}
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// TopLevelIndex returns the offset of the first delim in s that is
// not inside parentheses, or -1.
func TopLevelIndex(s string, delim byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == delim && depth == 0:
			return i
		}
	}
	return -1
}

// TopLevelSplit splits s at each delim that is not nested inside
// parentheses.
//
// Unbalanced parentheses give an *UnbalancedError.  The empty string
// splits into a single empty string.
func TopLevelSplit(s string, delim byte) ([]string, error) {
	if err := Balanced(s); err != nil {
		return nil, err
	}
	var (
		acc   = make([]string, 0, 4)
		depth = 0
		from  = 0
	)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == delim && depth == 0:
			acc = append(acc, s[from:i])
			from = i + 1
		}
	}
	return append(acc, s[from:]), nil
}

// ReplaceTopLevel returns s with each top-level occurrence of from
// replaced by to.
func ReplaceTopLevel(s string, from, to byte) string {
	bs := []byte(s)
	depth := 0
	for i, c := range bs {
		switch {
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == from && depth == 0:
			bs[i] = to
		}
	}
	return string(bs)
}

// DeleteSpaces removes all whitespace from s.
func DeleteSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}

// IsNumber reports whether s is a complete numeric literal.
func IsNumber(s string) bool {
	if s == "" {
		return false
	}
	switch c := s[0]; {
	case '0' <= c && c <= '9', c == '.', c == '+', c == '-':
	default:
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// Between returns the text of s that follows the first occurrence of
// after and precedes the next occurrence of before.  An empty before
// means the rest of s.  ok is false if either marker is missing.
func Between(s, after, before string) (string, bool) {
	i := strings.Index(s, after)
	if i < 0 {
		return "", false
	}
	rest := s[i+len(after):]
	if before == "" {
		return rest, true
	}
	j := strings.Index(rest, before)
	if j < 0 {
		return "", false
	}
	return rest[:j], true
}
