package chroma_test

import (
	"testing"

	"github.com/fwojciec/redline/chroma"
	"github.com/stretchr/testify/assert"
)

func TestDetector_Detect(t *testing.T) {
	t.Parallel()

	t.Run("info strings by name, alias and extension", func(t *testing.T) {
		t.Parallel()

		detector := chroma.NewDetector()

		cases := []struct {
			info string
			want string
		}{
			{"go", "Go"},
			{"Go", "Go"},
			{"python", "Python"},
			{"py", "Python"},
			{"js", "JavaScript"},
			{"rust", "Rust"},
			{"bash", "Bash"},
		}

		for _, tc := range cases {
			assert.Equal(t, tc.want, detector.Detect(tc.info, ""), "info: %s", tc.info)
		}
	})

	t.Run("attribute forms", func(t *testing.T) {
		t.Parallel()

		detector := chroma.NewDetector()

		assert.Equal(t, "Python", detector.Detect("{.python}", ""))
		assert.Equal(t, "JavaScript", detector.Detect("js,linenos", ""))
		assert.Equal(t, "Go", detector.Detect("go title=\"main.go\"", ""))
		assert.Equal(t, "Go", detector.Detect("language-go", ""))
	})

	t.Run("unknown info without analysis", func(t *testing.T) {
		t.Parallel()

		detector := chroma.NewDetector()

		assert.Empty(t, detector.Detect("unknownlang", "#!/bin/bash\necho hi\n"))
		assert.Empty(t, detector.Detect("", "#!/bin/bash\necho hi\n"))
	})

	t.Run("content analysis", func(t *testing.T) {
		t.Parallel()

		detector := chroma.NewDetector(chroma.WithContentAnalysis())

		assert.Equal(t, "Bash", detector.Detect("", "#!/bin/bash\necho hi\n"))
		assert.Empty(t, detector.Detect("", "   "))
	})
}
