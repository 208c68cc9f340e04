/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import "strings"

// Ellipsis marks text cut by Fit. ASCII so the PDF core fonts can draw it.
const Ellipsis = "..."

// Wrap breaks text into lines no wider than maxWidth. Explicit newlines are
// kept, runs of spaces collapse to one, and a word wider than maxWidth is
// split between runes. A non-positive maxWidth only splits on newlines.
func Wrap(m Measurer, text string, maxWidth float64) []string {
	paras := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var out []string
	for _, p := range paras {
		if maxWidth <= 0 {
			out = append(out, strings.Join(strings.Fields(p), " "))
			continue
		}
		out = append(out, wrapParagraph(m, p, maxWidth)...)
	}
	return out
}

func wrapParagraph(m Measurer, p string, maxWidth float64) []string {
	words := strings.Fields(p)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	cur := ""
	for _, w := range words {
		if cur != "" {
			if cand := cur + " " + w; m.Width(cand) <= maxWidth {
				cur = cand
				continue
			}
			lines = append(lines, cur)
			cur = ""
		}
		if m.Width(w) <= maxWidth {
			cur = w
			continue
		}
		// Break an overlong word; the tail continues the current line.
		pieces := breakWord(m, w, maxWidth)
		lines = append(lines, pieces[:len(pieces)-1]...)
		cur = pieces[len(pieces)-1]
	}
	return append(lines, cur)
}

// breakWord splits w into pieces that each fit maxWidth. Every piece holds at
// least one rune, so a single glyph wider than maxWidth still makes progress.
func breakWord(m Measurer, w string, maxWidth float64) []string {
	var pieces []string
	runes := []rune(w)
	for len(runes) > 0 {
		n := 1
		for n < len(runes) && m.Width(string(runes[:n+1])) <= maxWidth {
			n++
		}
		pieces = append(pieces, string(runes[:n]))
		runes = runes[n:]
	}
	return pieces
}

// Fit wraps text and keeps at most maxLines lines. When lines are dropped the
// last kept line ends in Ellipsis, shortened until it fits maxWidth.
// maxLines <= 0 means no limit.
func Fit(m Measurer, text string, maxWidth float64, maxLines int) []string {
	lines := Wrap(m, text, maxWidth)
	if maxLines <= 0 || len(lines) <= maxLines {
		return lines
	}
	lines = lines[:maxLines]
	last := []rune(strings.TrimRight(lines[maxLines-1], " "))
	for len(last) > 0 && maxWidth > 0 && m.Width(string(last)+Ellipsis) > maxWidth {
		last = last[:len(last)-1]
	}
	lines[maxLines-1] = strings.TrimRight(string(last), " ") + Ellipsis
	return lines
}
