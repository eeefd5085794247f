package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fudbi/fudbi/internal/common"
	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/repositories/repomanager"
)

// NotificationService manages the push channel address of a user.
type NotificationService struct {
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewNotificationService(m repomanager.RepositoryManager) *NotificationService {
	return &NotificationService{repomanager: m, now: time.Now}
}

// Register stores token as the caller's push address, replacing any
// previous one. An empty token unregisters.
func (s *NotificationService) Register(ctx context.Context, uc *models.UserContext, token string) error {
	if uc == nil {
		return common.ErrorUnauthorized
	}
	tokens := s.repomanager.Repositories().PushTokens
	token = strings.TrimSpace(token)
	if token == "" {
		if err := tokens.Delete(ctx, uc.UserID); err != nil {
			return fmt.Errorf("error removing push token: %w", err)
		}
		return nil
	}
	if len(token) > 256 {
		return fmt.Errorf("%w: token is too long", common.ErrorValidation)
	}
	err := tokens.Put(ctx, &models.PushToken{UserID: uc.UserID, Token: token, UpdatedAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("error saving push token: %w", err)
	}
	return nil
}
