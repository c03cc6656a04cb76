package models

import (
	"encoding/json"
	"time"
)

// DocumentType identifies one of the generated markdown artifacts. The
// declaration order is the generation order: each document depends on the
// one before it.
type DocumentType string

const (
	DocumentReadme         DocumentType = "readme"
	DocumentBOM            DocumentType = "bom"
	DocumentRoadmap        DocumentType = "roadmap"
	DocumentImplementation DocumentType = "implementation"
)

var documentOrder = []DocumentType{
	DocumentReadme,
	DocumentBOM,
	DocumentRoadmap,
	DocumentImplementation,
}

// AllDocumentTypes returns the document types in generation order.
func AllDocumentTypes() []DocumentType {
	out := make([]DocumentType, len(documentOrder))
	copy(out, documentOrder)
	return out
}

// Next returns the document type that follows t in generation order.
func (t DocumentType) Next() (DocumentType, bool) {
	for i, dt := range documentOrder {
		if dt == t && i+1 < len(documentOrder) {
			return documentOrder[i+1], true
		}
	}
	return "", false
}

// Valid reports whether t is one of the known document types.
func (t DocumentType) Valid() bool {
	for _, dt := range documentOrder {
		if dt == t {
			return true
		}
	}
	return false
}

// DocumentStatus is the lifecycle state of a single document.
type DocumentStatus string

const (
	StatusIdle       DocumentStatus = "idle"
	StatusGenerating DocumentStatus = "generating"
	StatusDraft      DocumentStatus = "draft"
	StatusAccepted   DocumentStatus = "accepted"
	StatusError      DocumentStatus = "error"
)

// DocumentState is the full state of one document. Owned by the pipeline;
// generators receive a read-only copy of their upstream document and return
// a new DocumentState describing their own output.
type DocumentState struct {
	Type        DocumentType   `json:"type"`
	Content     string         `json:"content"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	LastUpdated *time.Time     `json:"lastUpdated,omitempty"`
}

// ProjectDetails is the user-supplied project information.
type ProjectDetails struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	UserStories []string `json:"userStories"`
}

// StepState mirrors one navigational step of the wizard. Document-bearing
// steps carry the matching DocumentType; the initial data-entry step carries
// an empty one.
type StepState struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	IsCompleted  bool         `json:"isCompleted"`
	IsActive     bool         `json:"isActive"`
	DocumentType DocumentType `json:"documentType"`
}

// StepProjectDetails is the id of the data-entry step preceding all documents.
const StepProjectDetails = "project-details"

// GenerationState is the root aggregate of the wizard workflow.
type GenerationState struct {
	CurrentStep    string                         `json:"currentStep"`
	ProjectDetails ProjectDetails                 `json:"projectDetails"`
	Documents      map[DocumentType]DocumentState `json:"documents"`
	Steps          []StepState                    `json:"steps"`
}

// InitialGenerationState builds the canonical workflow shape: all documents
// idle and the project-details step active.
func InitialGenerationState() GenerationState {
	documents := make(map[DocumentType]DocumentState, len(documentOrder))
	for _, t := range documentOrder {
		documents[t] = DocumentState{Type: t, Content: "", Status: StatusIdle}
	}

	return GenerationState{
		CurrentStep: StepProjectDetails,
		ProjectDetails: ProjectDetails{
			UserStories: []string{},
		},
		Documents: documents,
		Steps: []StepState{
			{
				ID:          StepProjectDetails,
				Title:       "Project Details",
				Description: "Enter project information",
				IsActive:    true,
			},
			{
				ID:           string(DocumentReadme),
				Title:        "README",
				Description:  "Generate and review README",
				DocumentType: DocumentReadme,
			},
			{
				ID:           string(DocumentBOM),
				Title:        "Bill of Materials",
				Description:  "Generate and review BOM",
				DocumentType: DocumentBOM,
			},
			{
				ID:           string(DocumentRoadmap),
				Title:        "Roadmap",
				Description:  "Generate and review roadmap",
				DocumentType: DocumentRoadmap,
			},
			{
				ID:           string(DocumentImplementation),
				Title:        "Implementation Plan",
				Description:  "Generate and review implementation plan",
				DocumentType: DocumentImplementation,
			},
		},
	}
}

// MergeWithInitialState deserializes a persisted GenerationState and folds it
// over the canonical initial shape. Document types and steps introduced after
// the state was saved default to their initial value instead of being absent;
// everything present in the saved state is preserved as-is. Malformed input
// falls back to the initial state.
func MergeWithInitialState(data []byte) GenerationState {
	merged := InitialGenerationState()
	if len(data) == 0 {
		return merged
	}

	var saved GenerationState
	if err := json.Unmarshal(data, &saved); err != nil {
		return merged
	}

	if saved.CurrentStep != "" {
		merged.CurrentStep = saved.CurrentStep
	}
	merged.ProjectDetails.Name = saved.ProjectDetails.Name
	merged.ProjectDetails.Description = saved.ProjectDetails.Description
	if saved.ProjectDetails.UserStories != nil {
		merged.ProjectDetails.UserStories = saved.ProjectDetails.UserStories
	}

	for t, doc := range saved.Documents {
		if !t.Valid() {
			continue
		}
		doc.Type = t
		merged.Documents[t] = doc
	}

	savedSteps := make(map[string]StepState, len(saved.Steps))
	for _, step := range saved.Steps {
		savedSteps[step.ID] = step
	}
	for i := range merged.Steps {
		if step, ok := savedSteps[merged.Steps[i].ID]; ok {
			merged.Steps[i].IsCompleted = step.IsCompleted
			merged.Steps[i].IsActive = step.IsActive
		}
	}

	return merged
}

// Clone returns a copy whose user-story slice is independent of the
// original.
func (d ProjectDetails) Clone() ProjectDetails {
	out := d
	out.UserStories = make([]string, len(d.UserStories))
	copy(out.UserStories, d.UserStories)
	return out
}

// Clone returns a deep copy safe to hand to callers outside the pipeline.
func (s GenerationState) Clone() GenerationState {
	out := s

	out.Documents = make(map[DocumentType]DocumentState, len(s.Documents))
	for t, doc := range s.Documents {
		if doc.LastUpdated != nil {
			ts := *doc.LastUpdated
			doc.LastUpdated = &ts
		}
		out.Documents[t] = doc
	}

	out.Steps = make([]StepState, len(s.Steps))
	copy(out.Steps, s.Steps)

	out.ProjectDetails.UserStories = make([]string, len(s.ProjectDetails.UserStories))
	copy(out.ProjectDetails.UserStories, s.ProjectDetails.UserStories)

	return out
}
