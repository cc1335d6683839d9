package repository

import (
	"context"
	"database/sql"

	"govhub/internal/domain"
)

// ResourceRecordRepo implements domain.ResourceRecordRepository on SQLite.
// Pending update params and audit-notification bindings are stored as JSON
// columns; they are read and written whole.
type ResourceRecordRepo struct {
	db *sql.DB
}

func NewResourceRecordRepo(db *sql.DB) *ResourceRecordRepo {
	return &ResourceRecordRepo{db: db}
}

var _ domain.ResourceRecordRepository = (*ResourceRecordRepo)(nil)

func (r *ResourceRecordRepo) Get(ctx context.Context, catalogID, resourceTypeID, id string) (*domain.ResourceRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT catalog_id, resource_type_id, id, owner_group_id, approver_group_id,
		        parent_resource_type_id, pending_update_params, audit_notifications
		 FROM resource_records
		 WHERE catalog_id = ? AND resource_type_id = ? AND id = ?`,
		catalogID, resourceTypeID, id,
	)
	return scanResourceRecord(row)
}

func (r *ResourceRecordRepo) Set(ctx context.Context, rec *domain.ResourceRecord) error {
	pending, err := marshalPending(rec.PendingUpdateParams)
	if err != nil {
		return err
	}
	bindings, err := marshalJSON(rec.AuditNotifications, "[]")
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO resource_records
		   (catalog_id, resource_type_id, id, owner_group_id, approver_group_id,
		    parent_resource_type_id, pending_update_params, audit_notifications)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(catalog_id, resource_type_id, id) DO UPDATE SET
		   owner_group_id = excluded.owner_group_id,
		   approver_group_id = excluded.approver_group_id,
		   parent_resource_type_id = excluded.parent_resource_type_id,
		   pending_update_params = excluded.pending_update_params,
		   audit_notifications = excluded.audit_notifications,
		   updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		rec.CatalogID, rec.ResourceTypeID, rec.ID,
		nullString(rec.OwnerGroupID), nullString(rec.ApproverGroupID),
		nullString(rec.ParentResourceTypeID), pending, bindings,
	)
	return mapDBError(err)
}

func (r *ResourceRecordRepo) Delete(ctx context.Context, catalogID, resourceTypeID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM resource_records WHERE catalog_id = ? AND resource_type_id = ? AND id = ?`,
		catalogID, resourceTypeID, id,
	)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("resource record %s/%s/%s not found", catalogID, resourceTypeID, id)
	}
	return nil
}

func (r *ResourceRecordRepo) UpdatePendingUpdateParams(ctx context.Context, catalogID, resourceTypeID, id string, p *domain.PendingUpdateParams) error {
	pending, err := marshalPending(p)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE resource_records
		 SET pending_update_params = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		 WHERE catalog_id = ? AND resource_type_id = ? AND id = ?`,
		pending, catalogID, resourceTypeID, id,
	)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("resource record %s/%s/%s not found", catalogID, resourceTypeID, id)
	}
	return nil
}

func (r *ResourceRecordRepo) ListByCatalog(ctx context.Context, catalogID string) ([]domain.ResourceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT catalog_id, resource_type_id, id, owner_group_id, approver_group_id,
		        parent_resource_type_id, pending_update_params, audit_notifications
		 FROM resource_records
		 WHERE catalog_id = ?
		 ORDER BY resource_type_id, id`,
		catalogID,
	)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var records []domain.ResourceRecord
	for rows.Next() {
		rec, err := scanResourceRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func marshalPending(p *domain.PendingUpdateParams) (sql.NullString, error) {
	if p == nil {
		return sql.NullString{}, nil
	}
	raw, err := marshalJSON(p, "{}")
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: raw, Valid: true}, nil
}

func scanResourceRecord(row rowScanner) (*domain.ResourceRecord, error) {
	var rec domain.ResourceRecord
	var owner, approver, parent, pending sql.NullString
	var bindings string
	err := row.Scan(&rec.CatalogID, &rec.ResourceTypeID, &rec.ID,
		&owner, &approver, &parent, &pending, &bindings)
	if err != nil {
		return nil, mapDBError(err)
	}
	rec.OwnerGroupID = fromNullString(owner)
	rec.ApproverGroupID = fromNullString(approver)
	rec.ParentResourceTypeID = fromNullString(parent)
	if pending.Valid {
		rec.PendingUpdateParams = &domain.PendingUpdateParams{}
		if err := unmarshalJSON(pending.String, rec.PendingUpdateParams); err != nil {
			return nil, err
		}
	}
	if err := unmarshalJSON(bindings, &rec.AuditNotifications); err != nil {
		return nil, err
	}
	return &rec, nil
}
