package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/weiawesome/asg-rev/internal/audit"
	"github.com/weiawesome/asg-rev/internal/codec"
	"github.com/weiawesome/asg-rev/internal/domain"
	"github.com/weiawesome/asg-rev/internal/hub"
	"github.com/weiawesome/asg-rev/internal/registry"
	"github.com/weiawesome/asg-rev/internal/repository"
	"github.com/weiawesome/asg-rev/pkg/log"
)

const (
	msgInvalidFormat   = "Invalid message format"
	msgFailedToProcess = "Failed to process message"
)

type chatService struct {
	broadcaster     hub.Broadcaster
	membership      MembershipAuthority
	store           MessageStore
	registry        registry.Registry
	inFlightTimeout time.Duration
}

func NewChatService(
	broadcaster hub.Broadcaster,
	membership MembershipAuthority,
	store MessageStore,
	reg registry.Registry,
	inFlightTimeout time.Duration,
) ChatService {
	if reg == nil {
		reg = registry.NewMemoryRegistry()
	}
	return &chatService{
		broadcaster:     broadcaster,
		membership:      membership,
		store:           store,
		registry:        reg,
		inFlightTimeout: inFlightTimeout,
	}
}

func (s *chatService) Connect(ctx context.Context, c *hub.Client, roomName string) error {
	session := c.Session
	identity := session.Identity

	if _, err := codec.ForProtocol(session.Protocol); err != nil {
		return s.deny(ctx, c, roomName, domain.DenyInvalidProtocol, fmt.Sprintf("Unsupported protocol %q", session.Protocol))
	}

	key, err := domain.ParseRoomKey(roomName)
	if err != nil {
		de, _ := domain.AsDenyError(err)
		return s.deny(ctx, c, roomName, de.Reason, de.Detail)
	}

	if identity.IsZero() {
		return s.deny(ctx, c, roomName, domain.DenyAuthenticationRequired, "Authentication required")
	}
	exists, err := s.membership.UserExists(ctx, identity)
	if err != nil {
		return s.deny(ctx, c, roomName, domain.DenyConnectionFailed, "Connection failed: "+err.Error())
	}
	if !exists {
		return s.deny(ctx, c, roomName, domain.DenyAuthenticationRequired, "Authentication required")
	}

	channel, err := s.membership.FindChannel(ctx, key.ChannelID)
	if errors.Is(err, repository.ErrChannelNotFound) {
		return s.deny(ctx, c, roomName, domain.DenyChannelNotFound, "Channel does not exist")
	}
	if err != nil {
		return s.deny(ctx, c, roomName, domain.DenyConnectionFailed, "Connection failed: "+err.Error())
	}

	member, err := s.membership.IsMember(ctx, channel, identity)
	if err != nil {
		return s.deny(ctx, c, roomName, domain.DenyConnectionFailed, "Connection failed: "+err.Error())
	}
	if !member {
		return s.deny(ctx, c, roomName, domain.DenyNotAMember, "User is not a member of this channel")
	}

	if !session.Join(key, channel) {
		return s.deny(ctx, c, roomName, domain.DenyConnectionFailed, "Connection failed: session is "+session.State().String())
	}
	s.broadcaster.Subscribe(key.Topic(), c)

	if err := s.registry.Register(ctx, key.String(), c.ID, identity.UserID); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldRoomKey, key.String()).Msg("failed to register presence")
	}

	audit.Log(ctx, audit.ActionConnect, identity.UserID, key.String(), "joined group chat")
	return nil
}

func (s *chatService) deny(ctx context.Context, c *hub.Client, roomName string, reason domain.DenyReason, detail string) error {
	audit.LogWithDetail(ctx, audit.ActionConnectDenied, c.Session.Identity.UserID, roomName, string(reason), detail)
	return domain.NewDenyError(reason, detail)
}

func (s *chatService) HandleFrame(ctx context.Context, c *hub.Client, frame []byte) {
	if len(frame) == 0 {
		return
	}
	if !c.Session.IsJoined() {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			l := log.Ctx(ctx)
			l.Error().Interface("panic", r).Str(log.FieldClientID, c.ID).Msg("frame handler panicked")
			s.sendError(c, msgFailedToProcess+": internal error")
		}
	}()

	decoder, err := codec.ForProtocol(c.Session.Protocol)
	if err != nil {
		s.sendError(c, fmt.Sprintf("%s: %v", msgFailedToProcess, err))
		return
	}

	msg, err := decoder.Decode(frame)
	if err != nil {
		var de *codec.DecodeError
		if errors.As(err, &de) && de.Syntax {
			s.sendError(c, msgInvalidFormat)
			return
		}
		s.sendError(c, fmt.Sprintf("%s: %v", msgFailedToProcess, err))
		return
	}
	if msg == nil {
		return
	}

	switch msg.Kind {
	case domain.InboundText:
		s.handleText(ctx, c, msg.Content)
	case domain.InboundFile:
		s.handleFile(ctx, c, msg.FileName, msg.Data)
	}
}

func (s *chatService) handleText(ctx context.Context, c *hub.Client, content string) {
	// Empty messages are dropped without a reply.
	if content == "" {
		return
	}

	ctx, cancel := s.inFlightContext(ctx)
	defer cancel()

	session := c.Session
	msg, err := s.store.CreateTextMessage(ctx, session.Identity, session.Channel(), content)
	if err == nil && msg == nil {
		err = &domain.PersistenceError{Op: "save message", Err: errors.New("store returned no message")}
	}
	if err != nil {
		s.reportFailure(ctx, c, err)
		return
	}

	event := domain.NewChatMessageEvent(msg, session.Identity, content)
	if !s.publish(ctx, c, event) {
		return
	}
	audit.Log(ctx, audit.ActionSendMessage, session.Identity.UserID, msg.ID, "sent chat message")
}

func (s *chatService) handleFile(ctx context.Context, c *hub.Client, fileName string, data []byte) {
	if fileName == "" {
		s.reportFailure(ctx, c, &domain.ValidationError{Field: "file_name", Message: "file name is required"})
		return
	}

	ctx, cancel := s.inFlightContext(ctx)
	defer cancel()

	session := c.Session
	msg, err := s.store.CreateFileMessage(ctx, session.Identity, session.Channel(), fileName, data)
	if err != nil {
		s.reportFailure(ctx, c, err)
		return
	}

	// A store may accept the upload without assigning an id; the event then
	// carries the client's file name and a null message_id.
	var messageID string
	if msg != nil {
		messageID = msg.ID
		if msg.FileName != "" {
			fileName = msg.FileName
		}
	}

	event := domain.NewChatFileEvent(msg, session.Identity, fileName)
	if !s.publish(ctx, c, event) {
		return
	}
	audit.LogWithDetail(ctx, audit.ActionSendFile, session.Identity.UserID, messageID, fileName, "sent chat file")
}

// inFlightContext detaches persistence and publish from the connection, so
// a disconnect mid-write does not abort them.
func (s *chatService) inFlightContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if s.inFlightTimeout > 0 {
		return context.WithTimeout(ctx, s.inFlightTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *chatService) publish(ctx context.Context, c *hub.Client, event interface{}) bool {
	data, err := codec.Encode(event)
	if err != nil {
		s.reportFailure(ctx, c, err)
		return false
	}

	topic := c.Session.RoomKey().Topic()
	if err := s.broadcaster.Publish(ctx, topic, data); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldTopic, topic).Msg("failed to publish chat event")
		s.sendError(c, fmt.Sprintf("%s: %v", msgFailedToProcess, err))
		return false
	}
	return true
}

func (s *chatService) reportFailure(ctx context.Context, c *hub.Client, err error) {
	l := log.Ctx(ctx)
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		l.Debug().Err(err).Str(log.FieldClientID, c.ID).Msg("rejected chat frame")
	} else {
		l.Error().Err(err).Str(log.FieldClientID, c.ID).Msg("failed to process chat frame")
	}
	s.sendError(c, fmt.Sprintf("%s: %v", msgFailedToProcess, err))
}

// sendError replies to the originating client only.
func (s *chatService) sendError(c *hub.Client, message string) {
	c.Enqueue(codec.EncodeError(message))
}

func (s *chatService) HandleDisconnect(ctx context.Context, c *hub.Client) {
	session := c.Session
	closed, wasJoined := session.Close()

	key := session.RoomKey()
	if !key.IsZero() {
		s.broadcaster.Unsubscribe(key.Topic(), c)
	}
	if !closed {
		return
	}

	if wasJoined {
		if err := s.registry.Deregister(ctx, key.String(), c.ID); err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Str(log.FieldRoomKey, key.String()).Msg("failed to deregister presence")
		}
		now := time.Now()
		detail := fmt.Sprintf("duration=%s idle=%s",
			now.Sub(session.CreatedAt).Round(time.Second), now.Sub(session.LastActive()).Round(time.Second))
		audit.LogWithDetail(ctx, audit.ActionDisconnect, session.Identity.UserID, key.String(), detail, "left group chat")
	}
}

func (s *chatService) Start(ctx context.Context) error {
	if err := s.registry.StartHeartbeat(ctx); err != nil {
		return fmt.Errorf("failed to start presence heartbeat: %w", err)
	}
	l := log.L()
	l.Info().Msg("chat service started")
	return nil
}

func (s *chatService) Stop() error {
	s.registry.StopHeartbeat()
	return nil
}
