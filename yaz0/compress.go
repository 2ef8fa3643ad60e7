// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package yaz0

import "github.com/nxtoolkit/nxbin/binaryio"

// Conventional sliding-window match-finder parameters (spec.md §4.2):
// the window reaches 0x1000 bytes back, matches run 3..0x111 bytes.
const (
	windowSize = 0x1000
	minMatch   = 3
	maxMatch   = 0x111
)

// clampLevel enforces the documented [6, 9] range: 6 is fastest (shallow
// chain search), 9 is slowest (deep chain search). The specification
// fixes only the output format; this module's choice of "level controls
// hash-chain search depth" is one valid strategy among many.
func clampLevel(level int) int {
	if level < 6 {
		return 6
	}
	if level > 9 {
		return 9
	}
	return level
}

func searchDepthForLevel(level int) int {
	switch clampLevel(level) {
	case 6:
		return 16
	case 7:
		return 32
	case 8:
		return 64
	default:
		return 128
	}
}

func hash3(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

func matchLength(data []byte, a, b int) int {
	max := len(data) - b
	if max > maxMatch {
		max = maxMatch
	}
	n := 0
	for n < max && data[a+n] == data[b+n] {
		n++
	}
	return n
}

// chunk is one literal byte or one back-reference, in emission order.
type chunk struct {
	literal  bool
	lit      byte
	length   int
	distance int
}

// findMatches runs a hash-chain LZ77 search over data and returns the
// chosen literal/match decomposition. It's greedy: at each position it
// takes the best match it can find within searchDepth candidates, or
// falls back to a literal.
func findMatches(data []byte, level int) []chunk {
	depth := searchDepthForLevel(level)
	n := len(data)

	head := make(map[uint32]int, n)
	prev := make([]int, n)
	for i := range prev {
		prev[i] = -1
	}

	insert := func(pos int) {
		if pos+3 > n {
			return
		}
		key := hash3(data[pos:])
		if last, ok := head[key]; ok {
			prev[pos] = last
		}
		head[key] = pos
	}

	var chunks []chunk
	i := 0
	for i < n {
		bestLen, bestDist := 0, 0
		if i+minMatch <= n {
			key := hash3(data[i:])
			cand, ok := head[key]
			tries := depth
			for ok && cand >= 0 && tries > 0 {
				dist := i - cand
				if dist > windowSize {
					break
				}
				if dist > 0 {
					l := matchLength(data, cand, i)
					if l > bestLen {
						bestLen, bestDist = l, dist
						if l >= maxMatch {
							break
						}
					}
				}
				cand = prev[cand]
				tries--
			}
		}

		if bestLen >= minMatch {
			chunks = append(chunks, chunk{length: bestLen, distance: bestDist})
			end := i + bestLen
			for ; i < end; i++ {
				insert(i)
			}
		} else {
			chunks = append(chunks, chunk{literal: true, lit: data[i]})
			insert(i)
			i++
		}
	}
	return chunks
}

// encodeMatch translates a (distance, length) pair into its 2- or 3-byte
// form (spec.md §4.2).
func encodeMatch(c chunk) []byte {
	dm1 := c.distance - 1
	if c.length >= 3 && c.length <= 17 {
		b0 := byte((c.length-2)<<4) | byte(dm1>>8)
		b1 := byte(dm1)
		return []byte{b0, b1}
	}
	b0 := byte(dm1 >> 8)
	b1 := byte(dm1)
	b2 := byte(c.length - 0x12)
	return []byte{b0, b1, b2}
}

// Compress encodes data as a full Yaz0 stream (header + group-coded
// body) at the given level, clamped to [6, 9]. Any valid decoder
// (Decompress or DecompressUnsafe) reproduces data exactly from the
// result; the specification does not constrain how literal runs and
// matches are chosen, only how they're encoded.
func Compress(data []byte, level int) []byte {
	chunks := findMatches(data, level)

	body := binaryio.NewWriter(binaryio.BigEndian)
	for start := 0; start < len(chunks); start += 8 {
		end := start + 8
		if end > len(chunks) {
			end = len(chunks)
		}
		group := chunks[start:end]

		var groupHeader byte
		for bit, c := range group {
			if c.literal {
				groupHeader |= 0x80 >> uint(bit)
			}
		}
		body.WriteU8(groupHeader)
		for _, c := range group {
			if c.literal {
				body.WriteU8(c.lit)
			} else {
				body.WriteBytes(encodeMatch(c))
			}
		}
	}

	out := binaryio.NewWriter(binaryio.BigEndian)
	Header{UncompressedSize: uint32(len(data)), DataAlignment: DefaultAlignment}.Write(out)
	out.WriteBytes(body.Bytes())
	return out.Bytes()
}
