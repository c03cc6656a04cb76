package main

import (
	"context"
	"fmt"
	"os"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"genspecs/internal/events"
	"genspecs/internal/models"
	"genspecs/internal/services"
)

// App struct
type App struct {
	ctx     context.Context
	svc     *services.Services
	dbClose func() error
}

// NewApp creates a new App application struct
func NewApp(svc *services.Services) *App {
	return &App{svc: svc}
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	events.EnableRuntimeEmitter()
}

// shutdown is called when the app is closing. Clean up resources here.
func (a *App) shutdown(ctx context.Context) {
	if a.dbClose != nil {
		if err := a.dbClose(); err != nil {
			runtime.LogError(ctx, fmt.Sprintf("failed to close database: %v", err))
		} else {
			runtime.LogInfo(ctx, "database closed")
		}
		a.dbClose = nil
	}
}

// GetState returns a snapshot of the whole workflow for the wizard UI.
func (a *App) GetState() models.GenerationState {
	return a.svc.Pipeline.State()
}

// SubmitProjectDetails stores the entered details and kicks off README
// generation; the remaining documents cascade as each one is accepted.
func (a *App) SubmitProjectDetails(details models.ProjectDetails) error {
	return a.svc.Pipeline.SubmitProjectDetails(details)
}

// UpdateProjectDetails applies a partial edit to the project details.
func (a *App) UpdateProjectDetails(patch services.ProjectDetailsPatch) {
	a.svc.Pipeline.UpdateProjectDetails(patch)
}

// AcceptDocument marks a document accepted and advances the wizard.
func (a *App) AcceptDocument(docType models.DocumentType) {
	a.svc.Pipeline.AcceptDocument(docType)
}

// RegenerateDocument re-runs generation for one document.
func (a *App) RegenerateDocument(docType models.DocumentType) {
	a.svc.Pipeline.RegenerateDocument(docType)
}

// HandleStepChange processes wizard navigation clicks.
func (a *App) HandleStepChange(stepID string) {
	a.svc.Pipeline.HandleStepChange(stepID)
}

// ResetWorkflow starts the wizard over from scratch.
func (a *App) ResetWorkflow() {
	a.svc.Pipeline.Reset()
}

// SetApiKey validates and stores the OpenRouter API key.
func (a *App) SetApiKey(key string) services.ValidationResult {
	return a.svc.Credentials.SetKey(key)
}

// ValidateApiKey re-checks the stored key against the provider.
func (a *App) ValidateApiKey() services.ValidationResult {
	return a.svc.Credentials.ValidateKey("")
}

// HasApiKey reports whether a validated key is available.
func (a *App) HasApiKey() bool {
	return a.svc.Credentials.HasValidKey()
}

// ClearApiKey removes the stored key.
func (a *App) ClearApiKey() {
	a.svc.Credentials.ClearKey()
}

// DownloadDocuments bundles the generated documents into a zip archive and
// saves it where the user chooses. Returns the written path, or an empty
// string if the dialog was cancelled.
func (a *App) DownloadDocuments() (string, error) {
	state := a.svc.Pipeline.State()

	archive, err := a.svc.Downloads.BuildArchive(state)
	if err != nil {
		return "", err
	}

	path, err := runtime.SaveFileDialog(a.ctx, runtime.SaveDialogOptions{
		Title:           "Save Documents",
		DefaultFilename: a.svc.Downloads.ArchiveName(state.ProjectDetails.Name),
	})
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", nil
	}

	if err := os.WriteFile(path, archive, 0644); err != nil {
		return "", fmt.Errorf("write archive: %w", err)
	}
	return path, nil
}
