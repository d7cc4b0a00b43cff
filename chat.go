package main

const chatHistorySize = 20

// chatHistory keeps the most recent chat lines for replay to lobby joiners.
type chatHistory struct {
	lines []string
}

// add appends a formatted chat line, evicting the oldest once the history
// holds chatHistorySize entries.
func (h *chatHistory) add(line string) {
	if len(h.lines) == chatHistorySize {
		h.lines = h.lines[1:]
	}
	h.lines = append(h.lines, line)
}
