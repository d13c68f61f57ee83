package llm

import "testing"

func TestStripThinking(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     string
		wantTag  string
	}{
		{
			name:  "no tags",
			input: "The S&P 500 closed at 6,400 today.",
			want:  "The S&P 500 closed at 6,400 today.",
		},
		{
			name:    "complete think pair",
			input:   "<think>user wants a price</think>It closed at 6,400.",
			want:    "It closed at 6,400.",
			wantTag: "think",
		},
		{
			name:    "multiple pairs",
			input:   "<think>a</think>First. <think>b</think>Second.",
			want:    "First. Second.",
			wantTag: "think",
		},
		{
			name:    "unclosed tag runs to end",
			input:   "Answer here.<think>trailing reasoning that never closed",
			want:    "Answer here.",
			wantTag: "think",
		},
		{
			name:    "reflection tag",
			input:   "<reflection>hmm</reflection>Done.",
			want:    "Done.",
			wantTag: "reflection",
		},
		{
			name:    "reasoning tag multiline",
			input:   "<reasoning>line one\nline two</reasoning>Final answer.",
			want:    "Final answer.",
			wantTag: "reasoning",
		},
		{
			name:  "dangling fragment at end",
			input: "All set.</thi",
			want:  "All set.",
		},
		{
			name:  "open fragment at end",
			input: "All set.<reflec",
			want:  "All set.",
		},
		{
			name:  "unrelated angle bracket kept",
			input: "Use a < b and c <div> here",
			want:  "Use a < b and c <div> here",
		},
		{
			name:  "only think content",
			input: "<think>nothing else</think>",
			want:  "",
			wantTag: "think",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, removed, tag := StripThinking(tt.input)
			if got != tt.want {
				t.Errorf("StripThinking(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if tag != tt.wantTag {
				t.Errorf("tag = %q, want %q", tag, tt.wantTag)
			}
			if removed != len(tt.input)-len(got) {
				t.Errorf("removed = %d, want %d", removed, len(tt.input)-len(got))
			}
		})
	}
}

func TestStripThinkingIdempotent(t *testing.T) {
	inputs := []string{
		"<think>x</think>hello",
		"plain text",
		"partial<think> never closed",
		"tail fragment</reason",
		"<reflection>a</reflection><think>b</think>both",
	}
	for _, input := range inputs {
		once, _, _ := StripThinking(input)
		twice, removed, _ := StripThinking(once)
		if twice != once {
			t.Errorf("not idempotent for %q: %q != %q", input, twice, once)
		}
		if removed != 0 {
			t.Errorf("second pass removed %d bytes from %q", removed, once)
		}
	}
}
