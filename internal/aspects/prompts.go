package aspects

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/spigell/cv-matcher/internal/ai"
)

//go:embed prompts.json
var promptsFile []byte

var taskInstructions = mustLoadInstructions()

func mustLoadInstructions() map[string]string {
	var m map[string]string
	if err := json.Unmarshal(promptsFile, &m); err != nil {
		panic(fmt.Sprintf("parse prompts.json: %v", err))
	}
	return m
}

func instructions(task ai.Task) string {
	return taskInstructions[string(task)]
}
