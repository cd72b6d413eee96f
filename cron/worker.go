package cron

import (
	"context"
	"encoding/json"
	"time"

	conversationRepo "tidybook/database/repository/conversation"
	"tidybook/models"
	"tidybook/services/lease"
	"tidybook/services/notification"
	"tidybook/utils"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// inactivityWindow is how long a conversation may sit idle before it is
// closed by the sweeper.
const inactivityWindow = 24 * time.Hour

// Worker runs the background side of the system: the asynq notification
// consumer and the periodic maintenance jobs.
type Worker struct {
	Conversations conversationRepo.ConversationRepository
	Leases        *lease.Manager

	redisOpt asynq.RedisClientOpt
	server   *asynq.Server
	cron     *cron.Cron
}

func NewWorker(conversations conversationRepo.ConversationRepository, leases *lease.Manager, redisOpt asynq.RedisClientOpt) *Worker {
	return &Worker{
		Conversations: conversations,
		Leases:        leases,
		redisOpt:      redisOpt,
	}
}

// Start launches the asynq consumer and the cron schedules. Both run until
// Stop.
func (w *Worker) Start() error {
	logger := utils.GetLogger()

	w.server = asynq.NewServer(w.redisOpt, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{"default": 1},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypeNewConversation, w.handleNewConversation)
	mux.HandleFunc(notification.TypeBookingCreated, w.handleBookingCreated)
	mux.HandleFunc(notification.TypeLeadCaptured, w.handleLeadCaptured)

	go func() {
		if err := w.server.Run(mux); err != nil {
			logger.Error("notification worker stopped", zap.Error(err))
		}
	}()

	w.cron = cron.New()
	if _, err := w.cron.AddFunc("@every 1m", w.sweepLeases); err != nil {
		return err
	}
	if _, err := w.cron.AddFunc("@every 15m", w.closeInactiveConversations); err != nil {
		return err
	}
	w.cron.Start()

	logger.Info("background worker started")
	return nil
}

func (w *Worker) Stop() {
	if w.cron != nil {
		w.cron.Stop()
	}
	if w.server != nil {
		w.server.Shutdown()
	}
}

func (w *Worker) sweepLeases() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := w.Leases.SweepExpired(ctx)
	if err != nil {
		utils.GetLogger().Warn("lease sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		utils.GetLogger().Info("swept expired slot leases", zap.Int64("count", n))
	}
}

func (w *Worker) closeInactiveConversations() {
	logger := utils.GetLogger()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	convs, err := w.Conversations.ListInactiveSince(ctx, time.Now().Add(-inactivityWindow))
	if err != nil {
		logger.Warn("inactive conversation scan failed", zap.Error(err))
		return
	}
	for _, conv := range convs {
		if err := w.Conversations.Close(ctx, conv.ID); err != nil {
			logger.Warn("failed to close inactive conversation",
				zap.String("conversationId", conv.ID), zap.Error(err))
		}
	}
	if len(convs) > 0 {
		logger.Info("closed inactive conversations", zap.Int("count", len(convs)))
	}
}

// The notification handlers are the delivery seam: today they log, and CRM or
// SMS fan-out slots in here without touching the chat path.

func (w *Worker) handleNewConversation(ctx context.Context, t *asynq.Task) error {
	var conv models.Conversation
	if err := json.Unmarshal(t.Payload(), &conv); err != nil {
		return err
	}
	utils.GetLogger().Info("new conversation started",
		zap.String("conversationId", conv.ID), zap.String("pageUrl", conv.PageURL))
	return nil
}

func (w *Worker) handleBookingCreated(ctx context.Context, t *asynq.Task) error {
	var booking models.Booking
	if err := json.Unmarshal(t.Payload(), &booking); err != nil {
		return err
	}
	utils.GetLogger().Info("booking created",
		zap.String("bookingId", booking.ID),
		zap.String("date", booking.BookingDate),
		zap.String("time", booking.StartTime),
		zap.Float64("total", booking.TotalPrice),
		zap.String("syncStatus", booking.SyncStatus))
	return nil
}

func (w *Worker) handleLeadCaptured(ctx context.Context, t *asynq.Task) error {
	var conv models.Conversation
	if err := json.Unmarshal(t.Payload(), &conv); err != nil {
		return err
	}
	utils.GetLogger().Info("lead captured",
		zap.String("conversationId", conv.ID),
		zap.String("name", conv.VisitorName),
		zap.String("phone", conv.VisitorPhone))
	return nil
}
