package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/jmcandrew/auction-backoffice/internal/application/port"
	"github.com/jmcandrew/auction-backoffice/internal/domain/entity"
)

// HistoryRepository implements port.HistoryRepository over sqlite.
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{db: db, logger: logger}
}

const historyColumns = `id, reimbursement_id, stage, action, actor_id,
	previous_status, new_status, comments, request_id, timestamp`

// Create persists a new audit trail entry.
func (r *HistoryRepository) Create(ctx context.Context, history *entity.ApprovalHistory) error {
	query := `
		INSERT INTO approval_history (
			reimbursement_id, stage, action, actor_id,
			previous_status, new_status, comments, request_id, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		history.ReimbursementID,
		history.Stage,
		history.Action,
		history.ActorID,
		history.PreviousStatus,
		history.NewStatus,
		history.Comments,
		nullableString(history.RequestID),
		history.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to create history entry", zap.Error(err))
		return fmt.Errorf("failed to create history entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	history.ID = id
	return nil
}

// GetByReimbursementID retrieves the audit trail oldest first.
func (r *HistoryRepository) GetByReimbursementID(ctx context.Context, reimbursementID int64) ([]*entity.ApprovalHistory, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM approval_history
		WHERE reimbursement_id = ?
		ORDER BY timestamp ASC, id ASC
	`, historyColumns)

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, reimbursementID)
	if err != nil {
		r.logger.Error("Failed to get history", zap.Int64("reimbursement_id", reimbursementID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var entries []*entity.ApprovalHistory
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetByRequestID looks up a history row by idempotency key. Returns nil
// when the key has not been seen.
func (r *HistoryRepository) GetByRequestID(ctx context.Context, requestID string) (*entity.ApprovalHistory, error) {
	query := fmt.Sprintf(`SELECT %s FROM approval_history WHERE request_id = ?`, historyColumns)

	entry, err := scanHistory(getExecutor(ctx, r.db).QueryRowContext(ctx, query, requestID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get history by request id", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history by request id: %w", err)
	}
	return entry, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func scanHistory(row scannable) (*entity.ApprovalHistory, error) {
	var (
		entry            entity.ApprovalHistory
		stage, requestID sql.NullString
	)

	err := row.Scan(
		&entry.ID,
		&entry.ReimbursementID,
		&stage,
		&entry.Action,
		&entry.ActorID,
		&entry.PreviousStatus,
		&entry.NewStatus,
		&entry.Comments,
		&requestID,
		&entry.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	if stage.Valid {
		entry.Stage = stage.String
	}
	if requestID.Valid {
		entry.RequestID = requestID.String
	}

	return &entry, nil
}

var _ port.HistoryRepository = (*HistoryRepository)(nil)
