package editor

//go:generate mockgen -destination=mock_backend.go -package=editor -source=backend.go Backend

import (
	"context"

	"github.com/martinsuchenak/circuits/internal/model"
)

// Backend is the subset of the API client the editor needs.
type Backend interface {
	GetCircuit(ctx context.Context, id string) model.Result[model.Circuit]
	UpdateCircuit(ctx context.Context, c model.Circuit) model.Result[model.Circuit]
	CreateCircuit(ctx context.Context, dto model.CircuitDTO) model.Result[model.Circuit]
}
