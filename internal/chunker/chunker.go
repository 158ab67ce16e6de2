package chunker

// SplitAtSentences splits text into chunks of at most maxWords words,
// breaking only at sentence ends. A single sentence that alone exceeds
// the budget is emitted as its own chunk rather than split mid-sentence.
// The returned chunks concatenate back to the input text exactly.
func SplitAtSentences(text string, maxWords int) []string {
	if CountWords(text) <= maxWords {
		return []string{text}
	}

	breaks := FindSentenceBreaks(text)

	var chunks []string
	current := ""
	currentWords := 0

	start := 0
	for _, breakPos := range breaks {
		segment := text[start:breakPos]
		segmentWords := CountWords(segment)

		if currentWords+segmentWords > maxWords && current != "" {
			chunks = append(chunks, current)
			current = segment
			currentWords = segmentWords
		} else {
			current += segment
			currentWords += segmentWords
		}
		start = breakPos
	}

	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}
