package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"genspecs/internal/events"
	"genspecs/internal/generation"
	"genspecs/internal/llm/client"
	"genspecs/internal/models"
	"genspecs/internal/repositories"
)

// CredentialProvider is the slice of the credential store the pipeline needs.
type CredentialProvider interface {
	CurrentKey() (string, bool)
}

// CompleterFactory builds a completion client for a credential. The pipeline
// constructs one client per run instead of sharing a singleton, so the client
// identity follows the key explicitly.
type CompleterFactory func(ctx context.Context, apiKey string) (client.Completer, error)

// DocumentPatch is a partial document update. Nil fields are left untouched.
type DocumentPatch struct {
	Content *string                `json:"content,omitempty"`
	Status  *models.DocumentStatus `json:"status,omitempty"`
	Error   *string                `json:"error,omitempty"`
}

// ProjectDetailsPatch is a partial project-details update.
type ProjectDetailsPatch struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	UserStories *[]string `json:"userStories,omitempty"`
}

// PipelineService owns the generation workflow state. All mutations funnel
// through a single locked update path, the state is persisted after every
// mutation, and status transitions dispatch follow-up work synchronously:
// a document entering "generating" schedules its generator run, a document
// entering "accepted" cascades generation to its idle successor.
type PipelineService struct {
	repo         repositories.StorageRepository
	credentials  CredentialProvider
	newCompleter CompleterFactory
	retry        client.RetryConfig

	ctx context.Context

	mu       sync.Mutex
	state    models.GenerationState
	inflight map[models.DocumentType]bool
	epoch    int

	// side effects collected under the lock, fired after release
	pendingEvents []pendingEvent
	pendingRuns   []runRequest
}

type pendingEvent struct {
	name string
	evt  events.DocumentEvent
}

type runRequest struct {
	requestID string
	epoch     int
	desc      generation.Descriptor
	input     generation.Input
}

func NewPipelineService(repo repositories.StorageRepository, credentials CredentialProvider, factory CompleterFactory) *PipelineService {
	if factory == nil {
		factory = func(ctx context.Context, apiKey string) (client.Completer, error) {
			return client.New(ctx, apiKey)
		}
	}
	return &PipelineService{
		repo:         repo,
		credentials:  credentials,
		newCompleter: factory,
		retry:        client.DefaultRetryConfig(),
		state:        models.InitialGenerationState(),
		inflight:     make(map[models.DocumentType]bool),
	}
}

// Startup loads the persisted workflow state and merges it over the canonical
// initial shape so document types added since the state was saved default to
// idle. Documents left "generating" by an interrupted session resolve to
// error instead of staying stuck.
func (p *PipelineService) Startup(ctx context.Context) {
	p.ctx = ctx

	p.mu.Lock()
	defer p.mu.Unlock()

	value, ok, err := p.repo.Get(ctx, repositories.KeyGenerationState)
	if err != nil {
		log.Printf("pipeline: failed to load persisted state: %v", err)
	}
	if ok {
		p.state = models.MergeWithInitialState([]byte(value))
	}

	for t, doc := range p.state.Documents {
		if doc.Status == models.StatusGenerating {
			doc.Status = models.StatusError
			doc.Error = "Generation was interrupted"
			p.state.Documents[t] = doc
		}
	}

	p.persistLocked()
}

// State returns a deep copy of the current workflow state.
func (p *PipelineService) State() models.GenerationState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Clone()
}

// UpdateDocument merges a partial update into one document's state. This is
// the only mutation primitive document states go through.
func (p *PipelineService) UpdateDocument(t models.DocumentType, patch DocumentPatch) {
	p.mu.Lock()
	p.updateDocumentLocked(t, patch)
	p.persistLocked()
	p.unlockAndFire()
}

// AcceptDocument marks a document accepted and completes its wizard step.
// Accepting twice is a no-op beyond the first call.
func (p *PipelineService) AcceptDocument(t models.DocumentType) {
	status := models.StatusAccepted

	p.mu.Lock()
	p.updateDocumentLocked(t, DocumentPatch{Status: &status})
	for _, step := range p.state.Steps {
		if step.DocumentType == t {
			p.completeStepLocked(step.ID)
		}
	}
	p.persistLocked()
	p.unlockAndFire()
}

// RegenerateDocument switches a document to generating, which schedules its
// generator run. A regenerate issued while that document is already running
// is ignored.
func (p *PipelineService) RegenerateDocument(t models.DocumentType) {
	status := models.StatusGenerating

	p.mu.Lock()
	if p.inflight[t] {
		p.mu.Unlock()
		return
	}
	p.updateDocumentLocked(t, DocumentPatch{Status: &status})
	p.persistLocked()
	p.unlockAndFire()
}

// SetCurrentStep moves the wizard to stepID; exactly one step stays active.
func (p *PipelineService) SetCurrentStep(stepID string) {
	p.mu.Lock()
	p.setCurrentStepLocked(stepID)
	p.persistLocked()
	p.unlockAndFire()
}

// CompleteStep marks a step completed without touching any document.
func (p *PipelineService) CompleteStep(stepID string) {
	p.mu.Lock()
	p.completeStepLocked(stepID)
	p.persistLocked()
	p.unlockAndFire()
}

// UpdateProjectDetails merges a partial project-details update.
func (p *PipelineService) UpdateProjectDetails(patch ProjectDetailsPatch) {
	p.mu.Lock()
	if patch.Name != nil {
		p.state.ProjectDetails.Name = *patch.Name
	}
	if patch.Description != nil {
		p.state.ProjectDetails.Description = *patch.Description
	}
	if patch.UserStories != nil {
		stories := make([]string, len(*patch.UserStories))
		copy(stories, *patch.UserStories)
		p.state.ProjectDetails.UserStories = stories
	}
	p.persistLocked()
	p.unlockAndFire()
}

// SubmitProjectDetails stores the entered details, completes the data-entry
// step and triggers the first document's generation. This is the only
// explicit generation trigger; everything after the README cascades.
func (p *PipelineService) SubmitProjectDetails(details models.ProjectDetails) error {
	if details.Name == "" {
		return errors.New("Project name is required")
	}
	if details.Description == "" {
		return errors.New("Project description is required")
	}

	status := models.StatusGenerating

	p.mu.Lock()
	stories := make([]string, len(details.UserStories))
	copy(stories, details.UserStories)
	details.UserStories = stories
	p.state.ProjectDetails = details

	p.completeStepLocked(models.StepProjectDetails)
	p.setCurrentStepLocked(string(models.DocumentReadme))
	if !p.inflight[models.DocumentReadme] {
		p.updateDocumentLocked(models.DocumentReadme, DocumentPatch{Status: &status})
	}
	p.persistLocked()
	p.unlockAndFire()

	return nil
}

// HandleStepChange processes manual wizard navigation. Moving forward past
// the current step auto-accepts the document being left and starts the
// target document if it is still idle; moving backward only changes the
// active step.
func (p *PipelineService) HandleStepChange(stepID string) {
	p.mu.Lock()

	targetIdx := p.stepIndexLocked(stepID)
	currentIdx := p.stepIndexLocked(p.state.CurrentStep)
	if targetIdx < 0 || targetIdx == currentIdx {
		p.mu.Unlock()
		return
	}

	if targetIdx > currentIdx {
		if currentIdx >= 0 {
			current := p.state.Steps[currentIdx]
			if current.DocumentType != "" {
				status := models.StatusAccepted
				p.updateDocumentLocked(current.DocumentType, DocumentPatch{Status: &status})
				p.completeStepLocked(current.ID)
			}
		}
		p.setCurrentStepLocked(stepID)

		target := p.state.Steps[targetIdx]
		if target.DocumentType != "" && p.state.Documents[target.DocumentType].Status == models.StatusIdle {
			status := models.StatusGenerating
			p.updateDocumentLocked(target.DocumentType, DocumentPatch{Status: &status})
		}
	} else {
		p.setCurrentStepLocked(stepID)
	}

	p.persistLocked()
	p.unlockAndFire()
}

// Reset returns the whole workflow to its initial shape. Results of runs
// started before the reset are discarded when they complete.
func (p *PipelineService) Reset() {
	p.mu.Lock()
	p.epoch++
	p.state = models.InitialGenerationState()
	p.persistLocked()
	p.unlockAndFire()
}

// --- locked mutation helpers ---

func (p *PipelineService) updateDocumentLocked(t models.DocumentType, patch DocumentPatch) {
	doc, ok := p.state.Documents[t]
	if !ok {
		return
	}

	previous := doc.Status
	if patch.Content != nil {
		doc.Content = *patch.Content
	}
	if patch.Error != nil {
		doc.Error = *patch.Error
	}
	if patch.Status != nil {
		doc.Status = *patch.Status
	}
	now := time.Now()
	doc.LastUpdated = &now
	p.state.Documents[t] = doc

	if doc.Status != previous {
		p.onStatusChangeLocked(t, doc.Status)
	}
}

// onStatusChangeLocked is the explicit dispatch point for status
// transitions: it records the event, schedules generator runs, and applies
// the auto-advance rule.
func (p *PipelineService) onStatusChangeLocked(t models.DocumentType, status models.DocumentStatus) {
	doc := p.state.Documents[t]
	p.pendingEvents = append(p.pendingEvents, pendingEvent{
		name: events.DocumentStatusChanged,
		evt:  events.NewStatusEvent(t, status, doc.Error),
	})

	switch status {
	case models.StatusGenerating:
		p.scheduleRunLocked(t)
	case models.StatusAccepted:
		next, ok := t.Next()
		if !ok {
			// The last document was accepted; the whole workflow is done.
			p.pendingEvents = append(p.pendingEvents, pendingEvent{
				name: events.GenerationDone,
				evt:  events.NewStatusEvent(t, status, ""),
			})
			return
		}
		if p.state.Documents[next].Status != models.StatusIdle {
			return
		}
		generating := models.StatusGenerating
		p.updateDocumentLocked(next, DocumentPatch{Status: &generating})
		p.setCurrentStepLocked(string(next))
	}
}

func (p *PipelineService) scheduleRunLocked(t models.DocumentType) {
	if p.inflight[t] {
		return
	}
	desc, ok := generation.Lookup(t)
	if !ok {
		return
	}

	input := generation.Input{
		Details:         p.state.ProjectDetails.Clone(),
		ExistingContent: p.state.Documents[t].Content,
	}
	if desc.Dependency != nil {
		dep := p.state.Documents[desc.Dependency.Type]
		input.Dependency = &dep
	}
	if p.credentials != nil {
		input.APIKey, _ = p.credentials.CurrentKey()
	}

	p.inflight[t] = true
	p.pendingRuns = append(p.pendingRuns, runRequest{
		requestID: uuid.NewString(),
		epoch:     p.epoch,
		desc:      desc,
		input:     input,
	})
}

func (p *PipelineService) setCurrentStepLocked(stepID string) {
	p.state.CurrentStep = stepID
	for i := range p.state.Steps {
		p.state.Steps[i].IsActive = p.state.Steps[i].ID == stepID
	}
}

func (p *PipelineService) completeStepLocked(stepID string) {
	for i := range p.state.Steps {
		if p.state.Steps[i].ID == stepID {
			p.state.Steps[i].IsCompleted = true
		}
	}
}

func (p *PipelineService) stepIndexLocked(stepID string) int {
	for i, step := range p.state.Steps {
		if step.ID == stepID {
			return i
		}
	}
	return -1
}

func (p *PipelineService) persistLocked() {
	data, err := json.Marshal(p.state)
	if err != nil {
		log.Printf("pipeline: failed to serialize state: %v", err)
		return
	}
	if err := p.repo.Put(p.runContext(), repositories.KeyGenerationState, string(data)); err != nil {
		log.Printf("pipeline: failed to persist state: %v", err)
	}
}

// unlockAndFire releases the lock, then delivers collected events and starts
// collected generator runs. Must be called with the lock held.
func (p *PipelineService) unlockAndFire() {
	evts := p.pendingEvents
	runs := p.pendingRuns
	p.pendingEvents = nil
	p.pendingRuns = nil
	p.mu.Unlock()

	ctx := p.runContext()
	for _, pe := range evts {
		events.Emit(ctx, pe.name, pe.evt)
	}
	for _, run := range runs {
		go p.executeRun(run)
	}
}

func (p *PipelineService) executeRun(run runRequest) {
	ctx := p.runContext()

	var completer client.Completer
	var factoryErr error
	if run.input.APIKey != "" {
		inner, err := p.newCompleter(ctx, run.input.APIKey)
		if err != nil {
			factoryErr = err
		} else {
			completer = client.WithRetry(inner, p.retry)
		}
	}

	var result models.DocumentState
	if factoryErr != nil {
		now := time.Now()
		result = models.DocumentState{
			Type:        run.desc.Type,
			Content:     run.input.ExistingContent,
			Status:      models.StatusError,
			Error:       factoryErr.Error(),
			LastUpdated: &now,
		}
	} else {
		result = generation.Run(ctx, run.desc, run.input, completer)
	}

	log.Printf("pipeline: %s generation finished with status %s (request %s)",
		run.desc.Type, result.Status, run.requestID)

	p.mu.Lock()
	p.inflight[run.desc.Type] = false
	if run.epoch != p.epoch {
		// The workflow was reset while this run was in flight.
		p.mu.Unlock()
		return
	}
	p.updateDocumentLocked(run.desc.Type, DocumentPatch{
		Content: &result.Content,
		Status:  &result.Status,
		Error:   &result.Error,
	})
	p.persistLocked()
	p.unlockAndFire()
}

func (p *PipelineService) runContext() context.Context {
	if p.ctx != nil {
		return p.ctx
	}
	return context.Background()
}
