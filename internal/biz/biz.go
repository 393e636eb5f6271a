package biz

import (
	"friday/internal/biz/usecase"
)

// Usecases contains all usecases
type Usecases struct {
	ContextBuilder *usecase.ContextBuilderUsecase
	Reconcile      *usecase.ReconcileUsecase
}
