// Package strings holds small parsing helpers for configuration values.
package strings

import "strings"

// SplitCSV splits a comma-separated setting into trimmed values. Blank
// entries and repeats are dropped; first occurrence wins.
//
//	SplitCSV("kafka-1:9092, kafka-2:9092,,kafka-1:9092")
//	// []string{"kafka-1:9092", "kafka-2:9092"}
func SplitCSV(value string) []string {
	var out []string
	seen := map[string]bool{}
	for _, field := range strings.Split(value, ",") {
		field = strings.TrimSpace(field)
		if field == "" || seen[field] {
			continue
		}
		seen[field] = true
		out = append(out, field)
	}
	return out
}
