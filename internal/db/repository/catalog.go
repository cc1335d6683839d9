package repository

import (
	"context"
	"database/sql"

	"govhub/internal/domain"
)

// CatalogRepo implements domain.CatalogRepository. The governance record
// (name, description, owner group) lives in SQLite; resource types and
// approval flows come from the static catalog configuration loaded at
// startup, with handlers already resolved.
type CatalogRepo struct {
	db      *sql.DB
	configs map[string]catalogConfig
}

type catalogConfig struct {
	resourceTypes []domain.ResourceTypeConfig
	approvalFlows []domain.ApprovalFlowConfig
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{db: db, configs: make(map[string]catalogConfig)}
}

var _ domain.CatalogRepository = (*CatalogRepo)(nil)

// SetConfig registers the resource types and approval flows served for a
// catalog id. Called once per catalog during wiring.
func (r *CatalogRepo) SetConfig(catalogID string, types []domain.ResourceTypeConfig, flows []domain.ApprovalFlowConfig) {
	r.configs[catalogID] = catalogConfig{resourceTypes: types, approvalFlows: flows}
}

// Ensure upserts the catalog governance row. Used at startup to seed rows
// for configured catalogs.
func (r *CatalogRepo) Ensure(ctx context.Context, c *domain.Catalog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO catalogs (id, name, description, owner_group_id) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description`,
		c.ID, c.Name, c.Description, nullString(c.OwnerGroupID),
	)
	return mapDBError(err)
}

// SetOwner assigns the owning group of a catalog.
func (r *CatalogRepo) SetOwner(ctx context.Context, catalogID string, ownerGroupID *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE catalogs SET owner_group_id = ? WHERE id = ?`,
		nullString(ownerGroupID), catalogID,
	)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("catalog %s not found", catalogID)
	}
	return nil
}

func (r *CatalogRepo) GetByID(ctx context.Context, id string) (*domain.Catalog, error) {
	var c domain.Catalog
	var owner sql.NullString
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, owner_group_id FROM catalogs WHERE id = ?`, id)
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &owner); err != nil {
		return nil, mapDBError(err)
	}
	c.OwnerGroupID = fromNullString(owner)
	r.attachConfig(&c)
	return &c, nil
}

func (r *CatalogRepo) List(ctx context.Context) ([]domain.Catalog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, owner_group_id FROM catalogs ORDER BY name`)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var catalogs []domain.Catalog
	for rows.Next() {
		var c domain.Catalog
		var owner sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &owner); err != nil {
			return nil, mapDBError(err)
		}
		c.OwnerGroupID = fromNullString(owner)
		r.attachConfig(&c)
		catalogs = append(catalogs, c)
	}
	return catalogs, rows.Err()
}

func (r *CatalogRepo) attachConfig(c *domain.Catalog) {
	cfg, ok := r.configs[c.ID]
	if !ok {
		return
	}
	c.ResourceTypes = cfg.resourceTypes
	c.ApprovalFlows = cfg.approvalFlows
}
