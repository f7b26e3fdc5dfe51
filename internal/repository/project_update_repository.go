package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/stroyhub-backend/internal/logger"
	"github.com/ignatzorin/stroyhub-backend/internal/models"
	"github.com/ignatzorin/stroyhub-backend/internal/pkg/apperror"
)

// ProjectUpdateRepository отвечает за журнал изменений заявок.
// Журнал только пополняется, записи не изменяются и не удаляются.
type ProjectUpdateRepository struct {
	db *sqlx.DB
}

// NewProjectUpdateRepository создаёт экземпляр репозитория.
func NewProjectUpdateRepository(db *sqlx.DB) *ProjectUpdateRepository {
	return &ProjectUpdateRepository{db: db}
}

// insertProjectUpdate выполняет вставку журнальной записи через переданный
// executor (подключение или транзакция). Записи с одинаковым event_key
// по одной заявке схлопываются: повтор ретрая не породит дубликат.
func insertProjectUpdate(ctx context.Context, q sqlx.ExtContext, update *models.ProjectUpdate) error {
	query := `
		INSERT INTO project_updates (request_id, status, actor_id, note, event_key)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (request_id, event_key) DO NOTHING
	`
	if _, err := q.ExecContext(ctx, query,
		update.RequestID, update.Status, update.ActorID, update.Note, update.EventKey); err != nil {
		return fmt.Errorf("project update repository: append %w", err)
	}
	return nil
}

// Append добавляет запись в журнал заявки.
func (r *ProjectUpdateRepository) Append(ctx context.Context, update *models.ProjectUpdate) error {
	return insertProjectUpdate(ctx, r.db, update)
}

// List возвращает журнал заявки, новые записи первыми.
// Если упорядоченный запрос недоступен (нет требуемого индекса),
// читаем без сортировки и сортируем на клиенте: пользователь не должен
// видеть ошибку провижининга индекса.
func (r *ProjectUpdateRepository) List(ctx context.Context, requestID uuid.UUID) ([]models.ProjectUpdate, error) {
	var updates []models.ProjectUpdate

	ordered := `
		SELECT id, request_id, status, actor_id, note, event_key, created_at
		FROM project_updates
		WHERE request_id = $1
		ORDER BY created_at DESC
	`
	err := r.db.SelectContext(ctx, &updates, ordered, requestID)
	if err == nil {
		return updates, nil
	}

	idxErr := orderedQueryUnavailable(err)
	if logger.Log != nil {
		logger.Log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      idxErr.Error(),
		}).Warn("project update repository: упорядоченный запрос недоступен, переходим на клиентскую сортировку")
	}

	unordered := `
		SELECT id, request_id, status, actor_id, note, event_key, created_at
		FROM project_updates
		WHERE request_id = $1
	`
	updates = updates[:0]
	if err := r.db.SelectContext(ctx, &updates, unordered, requestID); err != nil {
		return nil, historyUnavailable(err)
	}

	sortUpdatesDesc(updates)
	return updates, nil
}

// orderedQueryUnavailable классифицирует сбой упорядоченного запроса:
// такая ошибка гасится фолбэком и до пользователя не доходит.
func orderedQueryUnavailable(err error) error {
	return apperror.Wrap(err, apperror.ErrCodeIndexUnavailable, "упорядоченный запрос журнала недоступен")
}

// historyUnavailable классифицирует сбой чтения журнала как временный:
// повтор запроса после восстановления хранилища отдаст журнал целиком.
func historyUnavailable(err error) error {
	return apperror.Wrap(err, apperror.ErrCodeTransient, "журнал заявки временно недоступен")
}

// sortUpdatesDesc сортирует записи журнала по убыванию времени создания.
func sortUpdatesDesc(updates []models.ProjectUpdate) {
	sort.SliceStable(updates, func(i, j int) bool {
		return updates[i].CreatedAt.After(updates[j].CreatedAt)
	})
}
