package services

import (
	"gorm.io/gorm"

	"genspecs/internal/repositories"
)

// Services aggregates the domain services backed by the database.
type Services struct {
	Credentials *CredentialService
	Pipeline    *PipelineService
	Downloads   *DownloadService
}

// NewServices constructs the service container using repositories backed by db.
func NewServices(db *gorm.DB) *Services {
	storageRepo := repositories.NewStorageRepository(db)

	credentials := NewCredentialService(storageRepo)
	pipeline := NewPipelineService(storageRepo, credentials, nil)

	return &Services{
		Credentials: credentials,
		Pipeline:    pipeline,
		Downloads:   NewDownloadService(),
	}
}
