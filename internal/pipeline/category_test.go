package pipeline

import "testing"

func TestDetectCategory(t *testing.T) {
	tests := []struct {
		desc string
		text string
		want string
	}{
		{desc: "empty", text: "", want: "general"},
		{desc: "no keywords", text: "The cat sat on the mat.", want: "general"},
		{desc: "politics", text: "The president signed the law after the senate vote.", want: "politics"},
		{desc: "health", text: "The vaccine reduced hospital admissions for the disease.", want: "health"},
		{desc: "science", text: "The Earth orbits the Sun, as NASA scientists explain.", want: "science"},
		{desc: "economy", text: "Inflation pushed prices up and the stock market fell.", want: "economy"},
		{desc: "environment", text: "Carbon emissions drive climate warming.", want: "environment"},
		{desc: "most hits wins", text: "The election campaign discussed climate, climate and more climate.", want: "environment"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := DetectCategory(tt.text); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}
