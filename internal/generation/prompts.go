package generation

import (
	"embed"
	"fmt"
	"strings"

	"genspecs/internal/models"
)

// embeddedPrompts holds the built-in system prompts so packaged executables
// can load them without needing access to the source tree.
//
//go:embed prompts/*.txt
var embeddedPrompts embed.FS

func systemPrompt(name string) string {
	data, err := embeddedPrompts.ReadFile("prompts/" + name + ".txt")
	if err != nil {
		// The prompt files are compiled into the binary; a miss here is a
		// build defect, not a runtime condition.
		panic(fmt.Sprintf("missing embedded prompt %q: %v", name, err))
	}
	return string(data)
}

// maxBOMPromptLength caps how much upstream BOM content is interpolated into
// the roadmap prompt. Longer content is cut and marked so the model knows to
// prioritize what survived.
const maxBOMPromptLength = 5000

func bulletedStories(stories []string) string {
	lines := make([]string, 0, len(stories))
	for _, story := range stories {
		lines = append(lines, "- "+story)
	}
	return strings.Join(lines, "\n")
}

func readmeUserPrompt(details models.ProjectDetails, _ string) string {
	return fmt.Sprintf(`Please generate a README.md for my project with these details:

Project Name: %s
Description: %s
User Stories:
%s

Generate the README following the structure exactly as specified in the system prompt.`,
		details.Name, details.Description, bulletedStories(details.UserStories))
}

func bomUserPrompt(details models.ProjectDetails, _ string) string {
	return fmt.Sprintf(`Please generate a Bill of Materials for my project with these details:

Project Name: %s
Description: %s
User Stories:
%s

Generate the BOM following the structure exactly as specified in the system prompt.
Analyze the project details to identify and categorize all technical components, dependencies, and requirements.`,
		details.Name, details.Description, bulletedStories(details.UserStories))
}

func roadmapUserPrompt(details models.ProjectDetails, bomContent string) string {
	if len(bomContent) > maxBOMPromptLength {
		bomContent = bomContent[:maxBOMPromptLength] + "... [truncated]"
	}

	return fmt.Sprintf(`Please generate a Project Roadmap for my project with these details:

Project Name: %s
Description: %s
User Stories:
%s

Key BOM Components:
%s

Generate the Roadmap following the structure exactly as specified in the system prompt.
Focus on the most critical components and phase transitions.
If BOM content was truncated, prioritize the most important elements.`,
		details.Name, details.Description, bulletedStories(details.UserStories), bomContent)
}

func implementationUserPrompt(details models.ProjectDetails, roadmapContent string) string {
	return fmt.Sprintf(`Please generate an Implementation Plan for my project with these details:

Project Name: %s
Description: %s
User Stories:
%s

Roadmap Content:
%s

Generate the Implementation Plan following the structure exactly as specified in the system prompt.
Break down each roadmap phase into detailed, actionable implementation tasks.`,
		details.Name, details.Description, bulletedStories(details.UserStories), roadmapContent)
}
