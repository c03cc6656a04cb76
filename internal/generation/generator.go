// Package generation holds the per-document generator descriptors and the
// generic routine that runs them. The per-type differences are declarative:
// prompt builders, a project-details validator and at most one upstream
// dependency rule.
package generation

import (
	"context"
	"errors"
	"time"

	"genspecs/internal/llm/client"
	"genspecs/internal/models"
)

// ErrAPIKeyMissing gates every generation: without a credential no prompt is
// built and no request leaves the process.
var ErrAPIKeyMissing = errors.New("API key is required")

// DependencyRule declares the single upstream document a generator needs and
// the exact message reported when it is not in the required status.
type DependencyRule struct {
	Type           models.DocumentType
	RequiredStatus models.DocumentStatus
	FailureMessage string
}

// Descriptor is one document type's generation strategy.
type Descriptor struct {
	Type models.DocumentType

	// DependencyKey is the JSON field carrying the upstream document state in
	// the HTTP generation API ("readmeState", "bomState", "roadmapState").
	DependencyKey string

	Dependency *DependencyRule

	SystemPrompt    func() string
	UserPrompt      func(details models.ProjectDetails, dependencyContent string) string
	ValidateDetails func(details models.ProjectDetails) error
}

var descriptors = map[models.DocumentType]Descriptor{
	models.DocumentReadme: {
		Type:            models.DocumentReadme,
		SystemPrompt:    func() string { return systemPrompt("readme_system") },
		UserPrompt:      readmeUserPrompt,
		ValidateDetails: requireNameAndDescription,
	},
	models.DocumentBOM: {
		Type:          models.DocumentBOM,
		DependencyKey: "readmeState",
		Dependency: &DependencyRule{
			Type:           models.DocumentReadme,
			RequiredStatus: models.StatusAccepted,
			FailureMessage: "Cannot generate BOM: README generation has not completed successfully",
		},
		SystemPrompt:    func() string { return systemPrompt("bom_system") },
		UserPrompt:      bomUserPrompt,
		ValidateDetails: requireNameAndDescription,
	},
	models.DocumentRoadmap: {
		Type:          models.DocumentRoadmap,
		DependencyKey: "bomState",
		Dependency: &DependencyRule{
			Type:           models.DocumentBOM,
			RequiredStatus: models.StatusAccepted,
			FailureMessage: "Cannot generate Roadmap: BOM generation has not completed successfully",
		},
		SystemPrompt: func() string { return systemPrompt("roadmap_system") },
		UserPrompt:   roadmapUserPrompt,
		ValidateDetails: func(details models.ProjectDetails) error {
			if err := requireNameAndDescription(details); err != nil {
				return err
			}
			if len(details.UserStories) == 0 {
				return errors.New("At least one user story is required")
			}
			return nil
		},
	},
	models.DocumentImplementation: {
		Type:          models.DocumentImplementation,
		DependencyKey: "roadmapState",
		Dependency: &DependencyRule{
			Type:           models.DocumentRoadmap,
			RequiredStatus: models.StatusAccepted,
			FailureMessage: "Cannot generate Implementation Plan: Roadmap generation has not completed successfully",
		},
		SystemPrompt:    func() string { return systemPrompt("implementation_system") },
		UserPrompt:      implementationUserPrompt,
		ValidateDetails: requireNameAndDescription,
	},
}

func requireNameAndDescription(details models.ProjectDetails) error {
	if details.Name == "" {
		return errors.New("Project name is required")
	}
	if details.Description == "" {
		return errors.New("Project description is required")
	}
	return nil
}

// Lookup returns the descriptor for a document type.
func Lookup(t models.DocumentType) (Descriptor, bool) {
	desc, ok := descriptors[t]
	return desc, ok
}

// Input is everything one generation run needs, snapshotted by the caller so
// the run works on stable data.
type Input struct {
	Details models.ProjectDetails

	// Dependency is a read-only copy of the upstream document's state; nil
	// for the readme generator.
	Dependency *models.DocumentState

	// ExistingContent is preserved verbatim when the run fails.
	ExistingContent string

	APIKey string
}

// Validate runs the synchronous precondition phase: credential presence,
// project-details requirements, then the dependency status check. It makes no
// network call and is shared by the pipeline and the HTTP generation API.
func Validate(desc Descriptor, in Input) error {
	if in.APIKey == "" {
		return ErrAPIKeyMissing
	}
	if err := desc.ValidateDetails(in.Details); err != nil {
		return err
	}
	if desc.Dependency != nil {
		if in.Dependency == nil || in.Dependency.Status != desc.Dependency.RequiredStatus {
			return errors.New(desc.Dependency.FailureMessage)
		}
	}
	return nil
}

// Generate builds the prompts and issues the completion. Preconditions must
// already have been validated.
func Generate(ctx context.Context, desc Descriptor, in Input, completer client.Completer) (string, error) {
	dependencyContent := ""
	if in.Dependency != nil {
		dependencyContent = in.Dependency.Content
	}
	return completer.Complete(ctx, desc.SystemPrompt(), desc.UserPrompt(in.Details, dependencyContent))
}

// Run executes the whole generation algorithm for one document and folds the
// outcome into a DocumentState. Failures are data: the returned state carries
// status error and the message, and existing content is never cleared.
func Run(ctx context.Context, desc Descriptor, in Input, completer client.Completer) models.DocumentState {
	now := time.Now()

	if err := Validate(desc, in); err != nil {
		return errorState(desc.Type, in.ExistingContent, err, now)
	}

	content, err := Generate(ctx, desc, in, completer)
	if err != nil {
		return errorState(desc.Type, in.ExistingContent, err, now)
	}

	return models.DocumentState{
		Type:        desc.Type,
		Content:     content,
		Status:      models.StatusAccepted,
		LastUpdated: &now,
	}
}

func errorState(t models.DocumentType, existingContent string, err error, now time.Time) models.DocumentState {
	return models.DocumentState{
		Type:        t,
		Content:     existingContent,
		Status:      models.StatusError,
		Error:       err.Error(),
		LastUpdated: &now,
	}
}
