package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"tidybook/models"
	"tidybook/services/ai"
	"tidybook/services/i18n"
	"tidybook/services/tools"
	"tidybook/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	historyLimit  = 30
	maxToolRounds = 2

	objectiveAuditPrefix = "intake objective: "
)

// ProcessTurn runs one visitor message through the whole pipeline: gating,
// persistence, deterministic capture, the model tool loop, the fabrication
// and intake safety nets, and the final state writes.
func (s *Service) ProcessTurn(ctx context.Context, req *models.ChatRequest, clientIP string) (*models.ChatResponse, *TurnError) {
	logger := utils.GetLogger()
	lang := i18n.Normalize(req.Language)

	settings, err := s.catalog.GetIntegrationSettings(ctx)
	if err != nil || settings == nil {
		logger.Error("failed to load integration settings", zap.Error(err))
		return nil, &TurnError{http.StatusServiceUnavailable, "chat_unavailable", i18n.T(lang, "chat_unavailable")}
	}
	if !settings.ChatEnabled {
		return nil, &TurnError{http.StatusForbidden, "chat_disabled", i18n.T(lang, "chat_unavailable")}
	}
	if pageExcluded(settings.ExcludedPages, req.PageURL) {
		return nil, &TurnError{http.StatusForbidden, "page_excluded", i18n.T(lang, "chat_unavailable")}
	}
	if !s.limiter.allow(clientIP, req.ConversationID) {
		return nil, &TurnError{http.StatusTooManyRequests, "rate_limited", i18n.T(lang, "rate_limited")}
	}

	conv, terr := s.loadOrCreateConversation(ctx, req)
	if terr != nil {
		return nil, terr
	}
	mem := conv.Memory
	if req.Language != "" || mem.Language == "" {
		mem.Language = lang
	} else {
		lang = mem.Language
	}

	count, err := s.conversations.CountNonInternal(ctx, conv.ID)
	if err != nil {
		logger.Error("failed to count messages", zap.String("conversationId", conv.ID), zap.Error(err))
		return nil, &TurnError{http.StatusServiceUnavailable, "chat_unavailable", i18n.T(lang, "chat_unavailable")}
	}
	if count >= s.maxVisitorMessages {
		return nil, &TurnError{http.StatusTooManyRequests, "conversation_limit", i18n.T(lang, "conversation_limit")}
	}

	visitorMsg := s.appendMessage(ctx, conv.ID, models.RoleVisitor, req.Message, nil)

	turn := &tools.Turn{
		Conv:             conv,
		Mem:              &mem,
		Settings:         settings,
		VisitorMessageID: visitorMsg.ID,
		Lang:             lang,
	}

	transcript, err := s.conversations.GetMessages(ctx, conv.ID, true)
	if err != nil {
		logger.Error("failed to load transcript", zap.String("conversationId", conv.ID), zap.Error(err))
		transcript = []models.Message{*visitorMsg}
	}
	prevAssistant := lastAssistantContent(transcript)

	s.captureHeuristics(ctx, turn, req.Message, prevAssistant, countVisitorTurns(transcript))

	// An affirmative answer to a booking prompt books directly, without the
	// model in the loop: waiting for it to decide to call the booking tool on
	// a later turn adds a round trip and another chance to claim success
	// without booking. The model only runs when data is still missing.
	var reply string
	if turn.BookingConfirmed {
		if result, missing := s.attemptAutoBooking(ctx, turn); len(missing) == 0 {
			if msg, ok := result["userMessage"].(string); ok && msg != "" {
				reply = msg
			} else {
				reply = i18n.T(lang, "booking_failed")
			}
		}
	}

	if reply == "" {
		objective := NextObjective(conv, &mem)
		repeats := countObjectiveRepeats(transcript, objective)

		provider, err := s.resolveProvider(settings)
		if err != nil {
			logger.Error("no usable AI provider", zap.Error(err))
			s.persistTurnState(ctx, conv, &mem)
			return nil, &TurnError{http.StatusServiceUnavailable, "chat_unavailable", i18n.T(lang, "chat_unavailable")}
		}

		system := BuildSystemPrompt(settings, conv, &mem, objective, repeats, lang)
		history := buildModelHistory(system, transcript)

		reply = s.runModelLoop(ctx, provider, turn, history)
		if reply == "" {
			reply = i18n.T(lang, "fallback_reply")
		}
	}

	reply = s.applySafetyNets(ctx, turn, reply)

	s.appendMessage(ctx, conv.ID, models.RoleAssistant, reply, nil)

	// Record which objective this turn pursued so the next turn can detect
	// repetition.
	if next := NextObjective(conv, &mem); next != "" {
		s.appendInternal(ctx, conv.ID, objectiveAuditPrefix+next, nil)
	}

	s.persistTurnState(ctx, conv, &mem)
	s.captureLead(ctx, conv)

	resp := &models.ChatResponse{
		ConversationID: conv.ID,
		Response:       reply,
		LeadCaptured:   conv.LeadCaptured,
	}
	if turn.BookingResult != nil {
		names := make([]string, 0, len(turn.BookingResult.Services))
		for _, line := range turn.BookingResult.Services {
			names = append(names, line.ServiceName)
		}
		resp.BookingCompleted = &models.BookingCompleted{
			Value:    turn.BookingResult.TotalPrice,
			Services: names,
		}
	}
	return resp, nil
}

func (s *Service) loadOrCreateConversation(ctx context.Context, req *models.ChatRequest) (*models.Conversation, *TurnError) {
	logger := utils.GetLogger()
	lang := i18n.Normalize(req.Language)

	if req.ConversationID != "" {
		conv, err := s.conversations.GetByID(ctx, req.ConversationID)
		if err != nil {
			logger.Error("failed to load conversation",
				zap.String("conversationId", req.ConversationID), zap.Error(err))
			return nil, &TurnError{http.StatusServiceUnavailable, "chat_unavailable", i18n.T(lang, "chat_unavailable")}
		}
		if conv != nil && conv.Status == models.ConversationOpen {
			return conv, nil
		}
		// Unknown or closed id: fall through and start fresh.
	}

	now := s.now()
	conv := &models.Conversation{
		ID:            uuid.New().String(),
		VisitorID:     req.VisitorID,
		Status:        models.ConversationOpen,
		PageURL:       req.PageURL,
		UserAgent:     req.UserAgent,
		VisitorName:   req.VisitorName,
		VisitorPhone:  req.VisitorPhone,
		VisitorEmail:  req.VisitorEmail,
		Memory:        models.NewMemory(),
		CreatedAt:     now,
		LastMessageAt: now,
	}
	conv.Memory.Language = lang
	if err := s.conversations.Create(ctx, conv); err != nil {
		logger.Error("failed to create conversation", zap.Error(err))
		return nil, &TurnError{http.StatusServiceUnavailable, "chat_unavailable", i18n.T(lang, "chat_unavailable")}
	}
	if s.notifier != nil {
		s.notifier.NewConversation(ctx, conv)
	}
	return conv, nil
}

// captureHeuristics runs the deterministic extractors before the model sees
// the message, so intake progresses even when the model skips its memory
// tools.
func (s *Service) captureHeuristics(ctx context.Context, turn *tools.Turn, message, prevAssistant string, visitorTurns int) {
	mem := turn.Mem
	conv := turn.Conv
	fields := map[string]string{}
	var captured []string

	if zip := ExtractZip(message); zip != "" && mem.Get(models.FieldZipcode) == "" {
		mem.Set(models.FieldZipcode, zip)
		conv.VisitorZip = zip
		fields["visitor_zipcode"] = zip
		captured = append(captured, models.FieldZipcode)
	}
	if phone := ExtractPhone(message); phone != "" && mem.Get(models.FieldPhone) == "" && conv.VisitorPhone == "" {
		mem.Set(models.FieldPhone, phone)
		conv.VisitorPhone = phone
		fields["visitor_phone"] = phone
		captured = append(captured, models.FieldPhone)
	}
	// Bare names are error-prone; accept them only once a few visitor turns
	// exist and the previous assistant message actually asked for the name.
	allowBare := visitorTurns >= 3 && prevAssistant != "" && AddressesObjective(prevAssistant, ObjectiveName)
	if name := ExtractName(message, allowBare); name != "" && mem.Get(models.FieldName) == "" && conv.VisitorName == "" {
		mem.Set(models.FieldName, name)
		conv.VisitorName = name
		fields["visitor_name"] = name
		captured = append(captured, models.FieldName)
	}
	if addr := ExtractAddress(message); addr != "" && mem.Get(models.FieldAddress) == "" && conv.VisitorAddr == "" {
		mem.Set(models.FieldAddress, addr)
		conv.VisitorAddr = addr
		fields["visitor_address"] = addr
		captured = append(captured, models.FieldAddress)
	}
	if len(fields) > 0 {
		if err := s.conversations.UpdateContact(ctx, conv.ID, fields); err != nil {
			utils.GetLogger().Warn("failed to persist captured contact fields",
				zap.String("conversationId", conv.ID), zap.Error(err))
		}
	}

	// Date and time capture. A bare time is resolved against what was last
	// suggested; an ambiguous one stays unresolved on purpose.
	if date := ExtractDate(message); date != "" {
		mem.Set(models.FieldSelectedDate, date)
		captured = append(captured, models.FieldSelectedDate)
		if t := ExtractTime(message); t != "" {
			mem.Set(models.FieldSelectedTime, t)
			captured = append(captured, models.FieldSelectedTime)
		}
	} else if date, t := ResolveTimeFromSuggestions(mem, message); date != "" {
		mem.Set(models.FieldSelectedDate, date)
		mem.Set(models.FieldSelectedTime, t)
		captured = append(captured, models.FieldSelectedDate, models.FieldSelectedTime)
	}

	if len(captured) > 0 {
		s.appendInternal(ctx, conv.ID, "heuristic capture: "+joinNames(captured), nil)
	}

	// Short confirmation replies resolved against the previous assistant
	// prompt.
	if IsAffirmative(message) {
		switch ClassifyPrompt(prevAssistant) {
		case PromptBooking:
			turn.BookingConfirmed = true
		case PromptService:
			if mem.LastOfferedService != "" && len(mem.Cart) == 0 {
				raw, _ := json.Marshal(map[string]string{"serviceId": mem.LastOfferedService})
				result := s.dispatcher.Execute(ctx, turn, "add_service", string(raw))
				resultJSON, _ := json.Marshal(result)
				s.appendInternal(ctx, conv.ID, "confirmed offered service", &models.MessageMeta{
					Internal:   true,
					ToolName:   "add_service",
					ToolArgs:   string(raw),
					ToolResult: string(resultJSON),
				})
			}
		}
	}
}

// runModelLoop drives the chat-completions tool loop: at most maxToolRounds
// rounds with tools offered, then one forced natural-language close.
func (s *Service) runModelLoop(ctx context.Context, provider ai.Provider, turn *tools.Turn, history []ai.Message) string {
	logger := utils.GetLogger()
	msgs := history

	for round := 0; round < maxToolRounds; round++ {
		res, err := provider.Chat(ctx, msgs, s.dispatcher.Definitions())
		if err != nil {
			logger.Error("model call failed",
				zap.String("provider", provider.Name()), zap.Int("round", round), zap.Error(err))
			return ""
		}
		if len(res.ToolCalls) == 0 {
			return res.Content
		}

		msgs = append(msgs, ai.Message{
			Role:      "assistant",
			Content:   res.Content,
			ToolCalls: res.ToolCalls,
		})
		for _, call := range res.ToolCalls {
			result := s.dispatcher.Execute(ctx, turn, call.Name, call.Arguments)
			raw, _ := json.Marshal(result)
			s.appendInternal(ctx, turn.Conv.ID, "tool call: "+call.Name, &models.MessageMeta{
				Internal:   true,
				ToolName:   call.Name,
				ToolArgs:   call.Arguments,
				ToolCallID: call.ID,
				ToolResult: string(raw),
			})
			msgs = append(msgs, ai.Message{
				Role:       "tool",
				Content:    string(raw),
				ToolCallID: call.ID,
				Name:       call.Name,
			})
		}
	}

	// Tool budget exhausted; ask for a plain reply.
	res, err := provider.Chat(ctx, msgs, nil)
	if err != nil {
		logger.Error("final model call failed",
			zap.String("provider", provider.Name()), zap.Error(err))
		return ""
	}
	return res.Content
}

// applySafetyNets corrects the two failure modes the model loop cannot be
// trusted with: claiming a booking that never happened, and drifting off the
// intake protocol.
func (s *Service) applySafetyNets(ctx context.Context, turn *tools.Turn, reply string) string {
	lang := turn.Lang

	if turn.BookingResult == nil && SoundsLikeBookingSuccess(reply) {
		if turn.BookingFailed {
			// A booking was attempted and failed this turn; never contradict
			// that with a success-sounding reply. Prefer the failure text the
			// booking tool produced, which carries fresh alternatives.
			if turn.FailureMessage != "" {
				reply = turn.FailureMessage
			} else {
				reply = i18n.T(lang, "booking_failed")
			}
		} else {
			result, missing := s.attemptAutoBooking(ctx, turn)
			switch {
			case turn.BookingResult != nil:
				if msg, ok := result["userMessage"].(string); ok && msg != "" {
					reply = msg
				}
			case len(missing) > 0:
				reply = i18n.T(lang, "booking_failed")
			default:
				if msg, ok := result["userMessage"].(string); ok && msg != "" {
					reply = msg
				} else {
					reply = i18n.T(lang, "booking_failed")
				}
			}
		}
	}

	if turn.BookingResult == nil && !answerBearingTool(turn.DominantTool) {
		if objective := NextObjective(turn.Conv, turn.Mem); objective != "" && !AddressesObjective(reply, objective) {
			if q := CanonicalQuestion(lang, objective); q != "" {
				reply = strings.TrimSpace(reply) + "\n\n" + q
			}
		}
	}
	return reply
}

// answerBearingTool reports whether a turn dominated by the named tool already
// carries a self-contained answer; tacking an intake question onto an FAQ
// answer or a slot list reads as ignoring the visitor.
func answerBearingTool(name string) bool {
	switch name {
	case "search_faqs", "suggest_booking_dates", "create_booking":
		return true
	}
	return false
}

func (s *Service) persistTurnState(ctx context.Context, conv *models.Conversation, mem *models.Memory) {
	logger := utils.GetLogger()
	conv.Memory = *mem
	if err := s.conversations.UpdateMemory(ctx, conv.ID, *mem); err != nil {
		logger.Error("failed to persist memory",
			zap.String("conversationId", conv.ID), zap.Error(err))
	}
	if err := s.conversations.Touch(ctx, conv.ID, s.now()); err != nil {
		logger.Warn("failed to touch conversation",
			zap.String("conversationId", conv.ID), zap.Error(err))
	}
}

func (s *Service) captureLead(ctx context.Context, conv *models.Conversation) {
	if conv.LeadCaptured || !conv.HasContact() {
		return
	}
	conv.LeadCaptured = true
	if err := s.conversations.MarkLeadCaptured(ctx, conv.ID); err != nil {
		utils.GetLogger().Warn("failed to mark lead captured",
			zap.String("conversationId", conv.ID), zap.Error(err))
		return
	}
	if s.notifier != nil {
		s.notifier.LeadCaptured(ctx, conv)
	}
}

// appendMessage persists one transcript entry and publishes it on the hub.
func (s *Service) appendMessage(ctx context.Context, conversationID, role, content string, meta *models.MessageMeta) *models.Message {
	msg := &models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Meta:           meta,
		CreatedAt:      s.now(),
	}
	if err := s.conversations.AppendMessage(ctx, msg); err != nil {
		utils.GetLogger().Error("failed to append message",
			zap.String("conversationId", conversationID), zap.String("role", role), zap.Error(err))
	}
	if s.hub != nil && (meta == nil || !meta.Internal) {
		s.hub.Publish(models.ChatEvent{Type: "message", ConversationID: conversationID, Message: msg})
	}
	return msg
}

func (s *Service) appendInternal(ctx context.Context, conversationID, content string, meta *models.MessageMeta) {
	if meta == nil {
		meta = &models.MessageMeta{Internal: true}
	}
	meta.Internal = true
	s.appendMessage(ctx, conversationID, models.RoleSystem, content, meta)
}

// buildModelHistory converts the non-internal transcript tail into model
// messages behind the system prompt.
func buildModelHistory(system string, transcript []models.Message) []ai.Message {
	visible := make([]models.Message, 0, len(transcript))
	for _, msg := range transcript {
		if msg.Meta != nil && msg.Meta.Internal {
			continue
		}
		if msg.Role != models.RoleVisitor && msg.Role != models.RoleAssistant {
			continue
		}
		visible = append(visible, msg)
	}
	if len(visible) > historyLimit {
		visible = visible[len(visible)-historyLimit:]
	}

	out := make([]ai.Message, 0, len(visible)+1)
	out = append(out, ai.Message{Role: "system", Content: system})
	for _, msg := range visible {
		role := "user"
		if msg.Role == models.RoleAssistant {
			role = "assistant"
		}
		out = append(out, ai.Message{Role: role, Content: msg.Content})
	}
	return out
}

func countVisitorTurns(transcript []models.Message) int {
	n := 0
	for _, msg := range transcript {
		if msg.Role != models.RoleVisitor {
			continue
		}
		if msg.Meta != nil && msg.Meta.Internal {
			continue
		}
		n++
	}
	return n
}

// lastAssistantContent is the most recent non-internal assistant message, the
// anchor for confirmation-reply classification.
func lastAssistantContent(transcript []models.Message) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		msg := transcript[i]
		if msg.Meta != nil && msg.Meta.Internal {
			continue
		}
		if msg.Role == models.RoleAssistant {
			return msg.Content
		}
	}
	return ""
}

// countObjectiveRepeats counts how many consecutive prior turns pursued the
// same objective, from the audit trail's tail.
func countObjectiveRepeats(transcript []models.Message, objective string) int {
	if objective == "" {
		return 0
	}
	repeats := 0
	for i := len(transcript) - 1; i >= 0; i-- {
		msg := transcript[i]
		if msg.Meta == nil || !msg.Meta.Internal || !strings.HasPrefix(msg.Content, objectiveAuditPrefix) {
			continue
		}
		if strings.TrimPrefix(msg.Content, objectiveAuditPrefix) != objective {
			break
		}
		repeats++
	}
	return repeats
}

func pageExcluded(patterns []string, pageURL string) bool {
	if pageURL == "" {
		return false
	}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.Contains(pageURL, p) {
			return true
		}
	}
	return false
}
