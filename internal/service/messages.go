package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"sigmine/internal/apperr"
	"sigmine/internal/models"
	"sigmine/internal/repository"
)

// MessageService implements the recipient-owned inbox. Senders keep no
// copy; delivery is final once the row exists.
type MessageService struct {
	Repo     repository.Repository
	Registry *RegistryService
	Logger   *zap.Logger
	Now      func() time.Time
}

func (s *MessageService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

type SendInput struct {
	To       string
	Type     string
	Subject  string
	Body     string
	Data     map[string]any
	Priority string
}

// Send delivers one message. The recipient resolves by agent id first,
// then case-insensitive name. Self-messaging is rejected after resolution
// so sending to your own name fails the same way.
func (s *MessageService) Send(ctx context.Context, from *models.Agent, in SendInput) (*models.Message, error) {
	if in.To == "" {
		return nil, apperr.Validation("recipient agent ID (to) required")
	}
	recipient, err := s.resolveRecipient(ctx, in.To)
	if err != nil {
		return nil, err
	}
	if recipient.ID == from.ID {
		return nil, apperr.Validation("cannot message yourself")
	}

	msg, err := s.buildMessage(from, recipient.ID, in)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	from.MessagesSent++
	if err := s.Repo.UpdateAgent(ctx, from); err != nil {
		return nil, err
	}
	recipient.MessagesReceived++
	if err := s.Repo.UpdateAgent(ctx, recipient); err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Info("message delivered",
			zap.String("from", from.Name),
			zap.String("to", recipient.Name))
	}
	return msg, nil
}

type InboxInput struct {
	UnreadOnly bool
	Type       string
	Limit      int
}

type InboxResult struct {
	Messages []models.Message
	Unread   int64
}

func (s *MessageService) Inbox(ctx context.Context, agentID string, in InboxInput) (InboxResult, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = 50
	}
	params := repository.ListMessagesParams{
		ToID:       agentID,
		UnreadOnly: in.UnreadOnly,
		Limit:      limit,
	}
	if in.Type != "" {
		params.Type = &in.Type
	}
	messages, err := s.Repo.ListMessages(ctx, params)
	if err != nil {
		return InboxResult{}, err
	}
	unread, err := s.Repo.CountUnread(ctx, agentID)
	if err != nil {
		return InboxResult{}, err
	}
	return InboxResult{Messages: messages, Unread: unread}, nil
}

// MarkRead flags one owned message as read. Re-reading an already read
// message succeeds without touching read_at again.
func (s *MessageService) MarkRead(ctx context.Context, agentID, messageID string) (*models.Message, error) {
	msg, err := s.owned(ctx, agentID, messageID)
	if err != nil {
		return nil, err
	}
	if msg.Read {
		return msg, nil
	}
	readAt := s.now()
	if err := s.Repo.MarkMessageRead(ctx, messageID, readAt); err != nil {
		return nil, err
	}
	msg.Read = true
	msg.ReadAt = &readAt
	return msg, nil
}

func (s *MessageService) Delete(ctx context.Context, agentID, messageID string) error {
	if _, err := s.owned(ctx, agentID, messageID); err != nil {
		return err
	}
	return s.Repo.DeleteMessage(ctx, messageID)
}

type DelegateInput struct {
	RequiredCapabilities []string
	Subject              string
	Body                 string
	Data                 map[string]any
	Priority             string
}

type DelegateResult struct {
	Message              *models.Message
	Chosen               models.Agent
	CandidatesConsidered int
}

// Delegate routes a task message to the best matching agent: online
// agents covering all required capabilities, busy ones as fallback,
// highest points wins. Delegation does not bump message counters.
func (s *MessageService) Delegate(ctx context.Context, from *models.Agent, in DelegateInput) (*DelegateResult, error) {
	if len(in.RequiredCapabilities) == 0 {
		return nil, apperr.Validation("required_capabilities array needed")
	}

	candidates, err := s.candidates(ctx, from.ID, in.RequiredCapabilities, models.StatusOnline)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		candidates, err = s.candidates(ctx, from.ID, in.RequiredCapabilities, models.StatusBusy)
		if err != nil {
			return nil, err
		}
	}
	if len(candidates) == 0 {
		return nil, apperr.NotFound("no matching agents found").WithMeta(map[string]any{
			"required_capabilities": in.RequiredCapabilities,
		})
	}
	sortByPoints(candidates)
	chosen := candidates[0]

	data := map[string]any{}
	for k, v := range in.Data {
		data[k] = v
	}
	data["required_capabilities"] = in.RequiredCapabilities
	data["delegated_at"] = s.now().Format(time.RFC3339)

	subject := in.Subject
	if subject == "" {
		subject = "Delegated Task"
	}
	msg, err := s.buildMessage(from, chosen.ID, SendInput{
		To:       chosen.ID,
		Type:     models.MessageTypeTask,
		Subject:  subject,
		Body:     in.Body,
		Data:     data,
		Priority: in.Priority,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Repo.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Info("task delegated",
			zap.String("from", from.Name),
			zap.String("to", chosen.Name))
	}
	return &DelegateResult{
		Message:              msg,
		Chosen:               chosen,
		CandidatesConsidered: len(candidates),
	}, nil
}

func (s *MessageService) candidates(ctx context.Context, excludeID string, caps []string, status string) ([]models.Agent, error) {
	agents, err := s.Registry.listDecayed(ctx)
	if err != nil {
		return nil, err
	}
	return filterAgents(agents, func(a models.Agent) bool {
		return a.ID != excludeID && a.Status == status && a.HasAllCapabilities(caps)
	}), nil
}

func (s *MessageService) owned(ctx context.Context, agentID, messageID string) (*models.Message, error) {
	msg, err := s.Repo.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	// A message in someone else's inbox is indistinguishable from a
	// missing one.
	if msg == nil || msg.ToID != agentID {
		return nil, apperr.NotFound("message not found")
	}
	return msg, nil
}

func (s *MessageService) resolveRecipient(ctx context.Context, to string) (*models.Agent, error) {
	agent, err := s.Repo.GetAgentByID(ctx, to)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		agent, err = s.Repo.GetAgentByName(ctx, to)
		if err != nil {
			return nil, err
		}
	}
	if agent == nil {
		return nil, apperr.NotFound("recipient agent not found")
	}
	return agent, nil
}

func (s *MessageService) buildMessage(from *models.Agent, toID string, in SendInput) (*models.Message, error) {
	msgType := in.Type
	if msgType == "" {
		msgType = models.MessageTypeMessage
	}
	if !models.ValidMessageType(msgType) {
		return nil, apperr.Validation("type must be message, task, request, or response")
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	if !models.ValidPriority(priority) {
		return nil, apperr.Validation("priority must be low, normal, high, or urgent")
	}

	data := in.Data
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &models.Message{
		ID:        uuid.NewString(),
		FromID:    from.ID,
		FromName:  from.Name,
		ToID:      toID,
		Type:      msgType,
		Priority:  priority,
		Subject:   in.Subject,
		Body:      in.Body,
		Data:      datatypes.JSON(raw),
		CreatedAt: s.now(),
	}, nil
}
