package generation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"genspecs/internal/models"
)

type completerStub struct {
	calls    int
	response string
	err      error

	lastSystemPrompt string
	lastUserPrompt   string
}

func (c *completerStub) Complete(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	c.calls++
	c.lastSystemPrompt = systemPrompt
	c.lastUserPrompt = userPrompt
	return c.response, c.err
}

func validDetails() models.ProjectDetails {
	return models.ProjectDetails{
		Name:        "GenSpecs",
		Description: "Generates project documents",
		UserStories: []string{"As a user I want generated docs"},
	}
}

func acceptedDoc(t models.DocumentType, content string) *models.DocumentState {
	return &models.DocumentState{Type: t, Content: content, Status: models.StatusAccepted}
}

func TestLookup_KnowsEveryDocumentType(t *testing.T) {
	for _, dt := range models.AllDocumentTypes() {
		desc, ok := Lookup(dt)
		if !ok || desc.Type != dt {
			t.Fatalf("Lookup(%q): got (%+v, %v)", dt, desc, ok)
		}
	}
	if _, ok := Lookup("summary"); ok {
		t.Fatalf("unknown type should not resolve")
	}
}

func TestValidate_RequiresAPIKey(t *testing.T) {
	desc, _ := Lookup(models.DocumentReadme)
	err := Validate(desc, Input{Details: validDetails()})
	if !errors.Is(err, ErrAPIKeyMissing) {
		t.Fatalf("got %v want ErrAPIKeyMissing", err)
	}
	if err.Error() != "API key is required" {
		t.Fatalf("message: got %q", err.Error())
	}
}

func TestValidate_ProjectDetailMessages(t *testing.T) {
	desc, _ := Lookup(models.DocumentReadme)

	err := Validate(desc, Input{APIKey: "k"})
	if err == nil || err.Error() != "Project name is required" {
		t.Fatalf("missing name: got %v", err)
	}

	err = Validate(desc, Input{APIKey: "k", Details: models.ProjectDetails{Name: "p"}})
	if err == nil || err.Error() != "Project description is required" {
		t.Fatalf("missing description: got %v", err)
	}
}

func TestValidate_RoadmapRequiresUserStories(t *testing.T) {
	desc, _ := Lookup(models.DocumentRoadmap)
	details := validDetails()
	details.UserStories = nil

	err := Validate(desc, Input{
		APIKey:     "k",
		Details:    details,
		Dependency: acceptedDoc(models.DocumentBOM, "bom"),
	})
	if err == nil || err.Error() != "At least one user story is required" {
		t.Fatalf("got %v", err)
	}
}

func TestValidate_DependencyGating(t *testing.T) {
	cases := []struct {
		docType models.DocumentType
		depType models.DocumentType
		message string
	}{
		{models.DocumentBOM, models.DocumentReadme,
			"Cannot generate BOM: README generation has not completed successfully"},
		{models.DocumentRoadmap, models.DocumentBOM,
			"Cannot generate Roadmap: BOM generation has not completed successfully"},
		{models.DocumentImplementation, models.DocumentRoadmap,
			"Cannot generate Implementation Plan: Roadmap generation has not completed successfully"},
	}

	for _, tc := range cases {
		desc, _ := Lookup(tc.docType)

		// Missing dependency.
		err := Validate(desc, Input{APIKey: "k", Details: validDetails()})
		if err == nil || err.Error() != tc.message {
			t.Fatalf("%s without dependency: got %v", tc.docType, err)
		}

		// Dependency present but still a draft.
		dep := &models.DocumentState{Type: tc.depType, Content: "c", Status: models.StatusDraft}
		err = Validate(desc, Input{APIKey: "k", Details: validDetails(), Dependency: dep})
		if err == nil || err.Error() != tc.message {
			t.Fatalf("%s with draft dependency: got %v", tc.docType, err)
		}

		// Accepted dependency passes.
		err = Validate(desc, Input{
			APIKey:     "k",
			Details:    validDetails(),
			Dependency: acceptedDoc(tc.depType, "c"),
		})
		if err != nil {
			t.Fatalf("%s with accepted dependency: got %v", tc.docType, err)
		}
	}
}

func TestRun_ValidationFailureMakesNoCompletionCall(t *testing.T) {
	desc, _ := Lookup(models.DocumentBOM)
	stub := &completerStub{response: "should not appear"}

	state := Run(context.Background(), desc, Input{
		APIKey:          "k",
		Details:         validDetails(),
		ExistingContent: "previous bom",
	}, stub)

	if stub.calls != 0 {
		t.Fatalf("completer called %d times on failed validation", stub.calls)
	}
	if state.Status != models.StatusError {
		t.Fatalf("status: got %q", state.Status)
	}
	if state.Error != "Cannot generate BOM: README generation has not completed successfully" {
		t.Fatalf("error: got %q", state.Error)
	}
	if state.Content != "previous bom" {
		t.Fatalf("existing content lost: got %q", state.Content)
	}
}

func TestRun_SuccessProducesAcceptedDocument(t *testing.T) {
	desc, _ := Lookup(models.DocumentReadme)
	stub := &completerStub{response: "# GenSpecs\n\ngenerated readme"}

	state := Run(context.Background(), desc, Input{APIKey: "k", Details: validDetails()}, stub)

	if stub.calls != 1 {
		t.Fatalf("completer calls: got %d want 1", stub.calls)
	}
	if state.Type != models.DocumentReadme || state.Status != models.StatusAccepted {
		t.Fatalf("unexpected state: %+v", state)
	}
	if state.Content != stub.response {
		t.Fatalf("content: got %q", state.Content)
	}
	if state.Error != "" || state.LastUpdated == nil {
		t.Fatalf("accepted state malformed: %+v", state)
	}
	if !strings.Contains(stub.lastUserPrompt, "Project Name: GenSpecs") {
		t.Fatalf("user prompt missing project name: %q", stub.lastUserPrompt)
	}
	if stub.lastSystemPrompt == "" {
		t.Fatalf("system prompt should not be empty")
	}
}

func TestRun_CompletionFailurePreservesContent(t *testing.T) {
	desc, _ := Lookup(models.DocumentReadme)
	stub := &completerStub{err: errors.New("Rate limit exceeded. Please try again later.")}

	state := Run(context.Background(), desc, Input{
		APIKey:          "k",
		Details:         validDetails(),
		ExistingContent: "previous readme",
	}, stub)

	if state.Status != models.StatusError {
		t.Fatalf("status: got %q", state.Status)
	}
	if state.Error != "Rate limit exceeded. Please try again later." {
		t.Fatalf("error: got %q", state.Error)
	}
	if state.Content != "previous readme" {
		t.Fatalf("existing content lost: got %q", state.Content)
	}
}

func TestRun_DependencyContentFlowsIntoPrompt(t *testing.T) {
	desc, _ := Lookup(models.DocumentImplementation)
	stub := &completerStub{response: "plan"}

	Run(context.Background(), desc, Input{
		APIKey:     "k",
		Details:    validDetails(),
		Dependency: acceptedDoc(models.DocumentRoadmap, "## Phase 1: groundwork"),
	}, stub)

	if !strings.Contains(stub.lastUserPrompt, "## Phase 1: groundwork") {
		t.Fatalf("roadmap content missing from prompt: %q", stub.lastUserPrompt)
	}
}
