package extract

// timeLayout is the timestamp format the retrieval service writes at the
// head of every log line.
const timeLayout = "2006/01/02 15:04:05"

// asciiSpace matches the whitespace bytes the service log actually contains.
var asciiSpace = [256]bool{' ': true, '\t': true, '\n': true, '\v': true, '\f': true, '\r': true}

// splitLine splits a raw log line into at most three parts: date token,
// time token, and the rest of the message as a single chunk. Runs of
// whitespace delimit the first two tokens; the message chunk keeps its
// internal whitespace but not the run that precedes it. Returns fewer than
// three parts when the line runs out of content first.
func splitLine(s string) []string {
	parts := make([]string, 0, 3)
	i := 0
	for len(parts) < 2 {
		for i < len(s) && asciiSpace[s[i]] {
			i++
		}
		if i == len(s) {
			return parts
		}
		start := i
		for i < len(s) && !asciiSpace[s[i]] {
			i++
		}
		parts = append(parts, s[start:i])
	}
	for i < len(s) && asciiSpace[s[i]] {
		i++
	}
	if i == len(s) {
		return parts
	}
	return append(parts, s[i:])
}
