package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"govhub/internal/domain"
)

// ApprovalRequestRepo implements domain.ApprovalRequestRepository on
// SQLite. Set upserts the full request row; requests are never deleted.
type ApprovalRequestRepo struct {
	db *sql.DB
}

func NewApprovalRequestRepo(db *sql.DB) *ApprovalRequestRepo {
	return &ApprovalRequestRepo{db: db}
}

var _ domain.ApprovalRequestRepository = (*ApprovalRequestRepo)(nil)

const approvalRequestColumns = `request_id, status, catalog_id, approval_flow_id, request_user_id,
	request_comment, input_params, input_resources, approver_type, approver_id,
	request_date, approved_date, validated_date, validation_handler_result,
	auto_revoke_duration_seconds`

func (r *ApprovalRequestRepo) Set(ctx context.Context, req *domain.ApprovalRequest) error {
	inputParams, err := marshalJSON(req.InputParams, "{}")
	if err != nil {
		return err
	}
	inputResources, err := marshalJSON(req.InputResources, "[]")
	if err != nil {
		return err
	}
	var autoRevokeSeconds sql.NullInt64
	if req.AutoRevokeDuration != nil {
		autoRevokeSeconds = sql.NullInt64{Int64: int64(req.AutoRevokeDuration.Seconds()), Valid: true}
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO approval_requests (`+approvalRequestColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(request_id) DO UPDATE SET
		   status = excluded.status,
		   approved_date = excluded.approved_date,
		   validated_date = excluded.validated_date,
		   validation_handler_result = excluded.validation_handler_result`,
		req.RequestID, req.Status, req.CatalogID, req.ApprovalFlowID, req.RequestUserID,
		req.RequestComment, inputParams, inputResources, req.ApproverType, req.ApproverID,
		req.RequestDate.UTC().Format(time.RFC3339Nano),
		nullTime(req.ApprovedDate), nullTime(req.ValidatedDate),
		nullString(req.ValidationHandlerResult), autoRevokeSeconds,
	)
	return mapDBError(err)
}

func (r *ApprovalRequestRepo) GetByID(ctx context.Context, requestID string) (*domain.ApprovalRequest, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+approvalRequestColumns+` FROM approval_requests WHERE request_id = ?`,
		requestID,
	)
	return scanApprovalRequest(row)
}

func (r *ApprovalRequestRepo) List(ctx context.Context, filter domain.ApprovalRequestFilter) ([]domain.ApprovalRequest, error) {
	query := `SELECT ` + approvalRequestColumns + ` FROM approval_requests WHERE catalog_id = ?`
	args := []interface{}{filter.CatalogID}
	var conds []string
	if filter.ApprovalFlowID != nil {
		conds = append(conds, "approval_flow_id = ?")
		args = append(args, *filter.ApprovalFlowID)
	}
	if filter.RequestUserID != nil {
		conds = append(conds, "request_user_id = ?")
		args = append(args, *filter.RequestUserID)
	}
	if filter.ApproverGroupID != nil {
		conds = append(conds, "approver_type = ? AND approver_id = ?")
		args = append(args, domain.ApproverTypeGroup, *filter.ApproverGroupID)
	}
	if filter.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, *filter.Status)
	}
	if len(conds) > 0 {
		query += " AND " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY request_date DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var requests []domain.ApprovalRequest
	for rows.Next() {
		req, err := scanApprovalRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

func scanApprovalRequest(row rowScanner) (*domain.ApprovalRequest, error) {
	var req domain.ApprovalRequest
	var inputParams, inputResources, requestDate string
	var approvedDate, validatedDate, validationResult sql.NullString
	var autoRevokeSeconds sql.NullInt64
	err := row.Scan(&req.RequestID, &req.Status, &req.CatalogID, &req.ApprovalFlowID,
		&req.RequestUserID, &req.RequestComment, &inputParams, &inputResources,
		&req.ApproverType, &req.ApproverID, &requestDate,
		&approvedDate, &validatedDate, &validationResult, &autoRevokeSeconds)
	if err != nil {
		return nil, mapDBError(err)
	}
	if err := unmarshalJSON(inputParams, &req.InputParams); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(inputResources, &req.InputResources); err != nil {
		return nil, err
	}
	req.RequestDate, err = time.Parse(time.RFC3339Nano, requestDate)
	if err != nil {
		return nil, err
	}
	if req.ApprovedDate, err = fromNullTime(approvedDate); err != nil {
		return nil, err
	}
	if req.ValidatedDate, err = fromNullTime(validatedDate); err != nil {
		return nil, err
	}
	req.ValidationHandlerResult = fromNullString(validationResult)
	if autoRevokeSeconds.Valid {
		d := time.Duration(autoRevokeSeconds.Int64) * time.Second
		req.AutoRevokeDuration = &d
	}
	return &req, nil
}
