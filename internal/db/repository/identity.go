package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"govhub/internal/domain"
)

// UserRepo implements domain.UserRepository on SQLite.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

var _ domain.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	roles, err := marshalJSON(u.Roles, "[]")
	if err != nil {
		return nil, err
	}
	out := *u
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, roles) VALUES (?, ?, ?, ?)`,
		out.ID, out.Name, out.Email, roles,
	)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &out, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, roles FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, roles FROM users ORDER BY name`)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	roles, err := marshalJSON(u.Roles, "[]")
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, roles = ? WHERE id = ?`,
		u.Name, u.Email, roles, u.ID,
	)
	if err != nil {
		return nil, mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrNotFound("user %s not found", u.ID)
	}
	out := *u
	return &out, nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("user %s not found", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var roles string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &roles); err != nil {
		return nil, mapDBError(err)
	}
	if err := unmarshalJSON(roles, &u.Roles); err != nil {
		return nil, err
	}
	return &u, nil
}

// GroupRepo implements domain.GroupRepository on SQLite.
type GroupRepo struct {
	db *sql.DB
}

func NewGroupRepo(db *sql.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

var _ domain.GroupRepository = (*GroupRepo)(nil)

func (r *GroupRepo) Create(ctx context.Context, g *domain.Group) (*domain.Group, error) {
	out := *g
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO groups (id, name, description) VALUES (?, ?, ?)`,
		out.ID, out.Name, out.Description,
	)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &out, nil
}

func (r *GroupRepo) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	var g domain.Group
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM groups WHERE id = ?`, id)
	if err := row.Scan(&g.ID, &g.Name, &g.Description); err != nil {
		return nil, mapDBError(err)
	}
	notifications, err := r.listNotifications(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Notifications = notifications
	return &g, nil
}

func (r *GroupRepo) List(ctx context.Context) ([]domain.Group, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description FROM groups ORDER BY name`)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description); err != nil {
			return nil, mapDBError(err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *GroupRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("group %s not found", id)
	}
	return nil
}

func (r *GroupRepo) AddMember(ctx context.Context, m *domain.GroupMember) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role) VALUES (?, ?, ?)`,
		m.GroupID, m.UserID, m.Role,
	)
	return mapDBError(err)
}

func (r *GroupRepo) RemoveMember(ctx context.Context, groupID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("user %s is not a member of group %s", userID, groupID)
	}
	return nil
}

func (r *GroupRepo) GetMember(ctx context.Context, groupID, userID string) (*domain.GroupMember, error) {
	var m domain.GroupMember
	row := r.db.QueryRowContext(ctx,
		`SELECT group_id, user_id, role FROM group_members WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	)
	if err := row.Scan(&m.GroupID, &m.UserID, &m.Role); err != nil {
		return nil, mapDBError(err)
	}
	return &m, nil
}

func (r *GroupRepo) ListMembers(ctx context.Context, groupID string) ([]domain.GroupMember, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT group_id, user_id, role FROM group_members WHERE group_id = ? ORDER BY user_id`,
		groupID,
	)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var members []domain.GroupMember
	for rows.Next() {
		var m domain.GroupMember
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.Role); err != nil {
			return nil, mapDBError(err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *GroupRepo) CountMembers(ctx context.Context, groupID string) (int64, error) {
	var count int64
	row := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_members WHERE group_id = ?`, groupID)
	if err := row.Scan(&count); err != nil {
		return 0, mapDBError(err)
	}
	return count, nil
}

func (r *GroupRepo) AddNotification(ctx context.Context, groupID string, n *domain.GroupNotification) error {
	properties, err := marshalJSON(n.Properties, "{}")
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO group_notifications (id, group_id, purpose, type_id, properties) VALUES (?, ?, ?, ?, ?)`,
		n.ID, groupID, n.Purpose, n.TypeID, properties,
	)
	return mapDBError(err)
}

func (r *GroupRepo) RemoveNotification(ctx context.Context, groupID, notificationID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM group_notifications WHERE group_id = ? AND id = ?`,
		groupID, notificationID,
	)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("notification %s not found on group %s", notificationID, groupID)
	}
	return nil
}

func (r *GroupRepo) listNotifications(ctx context.Context, groupID string) ([]domain.GroupNotification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, purpose, type_id, properties FROM group_notifications WHERE group_id = ? ORDER BY id`,
		groupID,
	)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var notifications []domain.GroupNotification
	for rows.Next() {
		var n domain.GroupNotification
		var properties string
		if err := rows.Scan(&n.ID, &n.Purpose, &n.TypeID, &properties); err != nil {
			return nil, mapDBError(err)
		}
		if err := unmarshalJSON(properties, &n.Properties); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
