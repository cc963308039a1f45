// suggest.go - "did you mean" identifier suggestions for compile errors
package tclbc

import "sort"

// knownCommands is the bundled frontend's command-word vocabulary
// (parser.go), used to offer a correction when a command name is close
// to but not exactly one of these.
var knownCommands = []string{"set", "proc", "if", "elseif", "else", "while", "foreach", "list", "return"}

// suggestCommand returns the known command word closest to name, if any
// is within edit distance 2, for annotating a parse error the same way
// findSimilarIdentifiers below annotates an unresolved variable reference.
func suggestCommand(name string) (string, bool) {
	const threshold = 2
	best := ""
	bestDist := threshold + 1
	for _, cmd := range knownCommands {
		d := levenshteinDistance(name, cmd)
		if d > 0 && d < bestDist {
			bestDist = d
			best = cmd
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// levenshteinDistance calculates the edit distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
	}
	for i := 0; i <= len(s1); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			matrix[i][j] = minInt(
				matrix[i-1][j]+1,
				minInt(matrix[i][j-1]+1, matrix[i-1][j-1]+cost))
		}
	}

	return matrix[len(s1)][len(s2)]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// findSimilarIdentifiers finds local-variable names similar to name,
// closest first, for annotating an undefined-variable diagnostic.
func findSimilarIdentifiers(name string, available map[string]int, maxSuggestions int) []string {
	type candidate struct {
		name     string
		distance int
	}

	const threshold = 3
	var candidates []candidate
	for varName := range available {
		dist := levenshteinDistance(name, varName)
		if dist <= threshold && dist > 0 {
			candidates = append(candidates, candidate{varName, dist})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance == candidates[j].distance {
			return candidates[i].name < candidates[j].name
		}
		return candidates[i].distance < candidates[j].distance
	})

	result := make([]string, 0, maxSuggestions)
	for i := 0; i < len(candidates) && i < maxSuggestions; i++ {
		result = append(result, candidates[i].name)
	}
	return result
}
