package ingest

// sniffSampleSize is how much of the input is inspected to pick a delimiter.
// It must not exceed the default bufio buffer size.
const sniffSampleSize = 4096

// candidateDelimiters are tried in order; earlier entries win ties.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// SniffDelimiter guesses the field delimiter from the first line of sample.
// Delimiters inside double-quoted fields are ignored. Defaults to ','.
func SniffDelimiter(sample []byte) rune {
	counts := make(map[rune]int, len(candidateDelimiters))
	inQuotes := false

scan:
	for _, c := range string(sample) {
		switch c {
		case '"':
			inQuotes = !inQuotes
		case '\n', '\r':
			if !inQuotes {
				break scan
			}
		default:
			if !inQuotes {
				counts[c]++
			}
		}
	}

	best, bestCount := ',', 0
	for _, d := range candidateDelimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}
