package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SunsetOrange/carnivorous-garden/internal/domain"
	"github.com/SunsetOrange/carnivorous-garden/internal/errors"
)

// plantColumns must match the Scan order in scanPlant.
const plantColumns = `id, owner_id, name, plant_type, health, created_at`

// PlantRepo implements domain.PlantStore backed by PostgreSQL.
type PlantRepo struct {
	pool *pgxpool.Pool
}

// NewPlantRepo creates a PlantRepo from the shared connection pool.
func NewPlantRepo(pool *pgxpool.Pool) *PlantRepo {
	return &PlantRepo{pool: pool}
}

func scanPlant(row pgx.Row) (*domain.Plant, error) {
	var plant domain.Plant
	err := row.Scan(
		&plant.ID, &plant.OwnerID, &plant.Name,
		&plant.PlantType, &plant.Health, &plant.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &plant, nil
}

// ListByOwner returns all plants owned by ownerID, oldest first.
func (r *PlantRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Plant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+plantColumns+`
		FROM plants
		WHERE owner_id = $1
		ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, errors.StoreError("failed to list plants", err)
	}
	defer rows.Close()

	var plants []domain.Plant
	for rows.Next() {
		plant, err := scanPlant(rows)
		if err != nil {
			return nil, errors.StoreError("failed to scan plant", err)
		}
		plants = append(plants, *plant)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StoreError("failed to read plants", err)
	}
	return plants, nil
}

// Create inserts a new plant for ownerID and returns the stored row.
func (r *PlantRepo) Create(ctx context.Context, ownerID uuid.UUID, name, plantType string) (*domain.Plant, error) {
	plant, err := scanPlant(r.pool.QueryRow(ctx, `
		INSERT INTO plants (id, owner_id, name, plant_type)
		VALUES ($1, $2, $3, $4)
		RETURNING `+plantColumns, uuid.New(), ownerID, name, plantType))
	if err != nil {
		return nil, errors.StoreError("failed to create plant", err)
	}
	return plant, nil
}
