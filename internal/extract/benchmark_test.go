package extract

import (
	"fmt"
	"testing"
)

// BenchmarkExtractor measures sustained lines/sec over a realistic mix of
// marker lines and noise.
func BenchmarkExtractor(b *testing.B) {
	lines := make([]string, 1000)
	for i := range lines {
		switch i % 5 {
		case 0:
			lines[i] = fmt.Sprintf("2024/01/15 10:00:00 Running getData request DC%d node n3 handler h2 REQ%d", i%4, i)
		case 1:
			lines[i] = fmt.Sprintf("2024/01/15 10:00:02 Retrieving file /data/chunk_%d.dat", i)
		case 2:
			lines[i] = "2024/01/15 10:00:05 Returning status 2000 OK"
		case 3:
			lines[i] = fmt.Sprintf("2024/01/15 10:00:03 cache miss for chunk %d", i)
		case 4:
			lines[i] = "malformed noise line"
		}
	}

	e := New()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := e.Line(lines[i%1000]); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkSplitLine measures the line-shape split on its own.
func BenchmarkSplitLine(b *testing.B) {
	line := "2024/01/15 10:00:00 Running getData request DC1 node n3 handler h2 REQ123"

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		splitLine(line)
	}
}
