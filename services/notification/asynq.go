package notification

import (
	"context"
	"encoding/json"

	"tidybook/models"
	"tidybook/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Task types handled by the notification worker.
const (
	TypeNewConversation = "notify:new_conversation"
	TypeBookingCreated  = "notify:booking_created"
	TypeLeadCaptured    = "notify:lead_captured"
)

// AsynqNotifier enqueues notification tasks on Redis; the worker in cron/
// performs the actual outbound delivery (SMS/Telegram/CRM sync).
type AsynqNotifier struct {
	client *asynq.Client
}

func NewAsynqNotifier(opt asynq.RedisClientOpt) *AsynqNotifier {
	return &AsynqNotifier{client: asynq.NewClient(opt)}
}

func (n *AsynqNotifier) enqueue(taskType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		utils.GetLogger().Warn("failed to marshal notification payload",
			zap.String("type", taskType), zap.Error(err))
		return
	}
	if _, err := n.client.Enqueue(asynq.NewTask(taskType, raw)); err != nil {
		// Fire-and-forget: a full queue never blocks the chat response.
		utils.GetLogger().Warn("failed to enqueue notification",
			zap.String("type", taskType), zap.Error(err))
	}
}

func (n *AsynqNotifier) NewConversation(_ context.Context, conv *models.Conversation) {
	n.enqueue(TypeNewConversation, conv)
}

func (n *AsynqNotifier) BookingCreated(_ context.Context, booking *models.Booking) {
	n.enqueue(TypeBookingCreated, booking)
}

func (n *AsynqNotifier) LeadCaptured(_ context.Context, conv *models.Conversation) {
	n.enqueue(TypeLeadCaptured, conv)
}
