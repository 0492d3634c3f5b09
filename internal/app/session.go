package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"netexam/internal/domain"
)

// Handle runs the full session protocol for one connection and closes it.
// Disconnects at any step are a normal outcome and return nil.
func (c *Coordinator) Handle(ctx context.Context, peer Peer) error {
	defer peer.Close()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-peer.Done():
			cancel()
		case <-connCtx.Done():
		}
	}()

	if err := c.pool.Acquire(connCtx, 1); err != nil {
		log.Debug().Err(err).Msg("connection left before a worker was free")
		return nil
	}
	defer c.pool.Release(1)

	// Store writes outlive shutdown so counters and answers stay consistent.
	err := c.runSession(context.WithoutCancel(ctx), connCtx, peer)
	if errors.Is(err, domain.ErrDisconnected) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *Coordinator) runSession(ctx, connCtx context.Context, peer Peer) error {
	id, err := c.askCredential(connCtx, peer, domain.FieldID, "Enter username:")
	if err != nil {
		return err
	}
	secret, err := c.askCredential(connCtx, peer, domain.FieldSecret, "Enter password:")
	if err != nil {
		return err
	}

	if !c.directory.Authenticate(id, secret) {
		return peer.Send(domain.Outbound{Type: domain.MsgAuthResult, Payload: domain.AuthResultPayload{
			OK:      false,
			Message: "Authentication failed! Invalid username or password.",
		}})
	}
	if err := peer.Send(domain.Outbound{Type: domain.MsgAuthResult, Payload: domain.AuthResultPayload{
		OK:      true,
		Message: "Authentication successful!",
	}}); err != nil {
		return err
	}

	entry := c.admit(ctx, id)
	defer c.leave(ctx, entry)
	logger := log.With().Str("participant", id).Str("entry", entry.ID).Logger()

	if err := peer.Send(domain.Outbound{Type: domain.MsgWaiting, Payload: domain.NoticePayload{
		Message: "Waiting for the exam to start",
	}}); err != nil {
		logger.Info().Msg("disconnected before reaching the lobby")
		return err
	}
	logger.Info().Msg("waiting for exam to start")

	if err := c.awaitGate(connCtx, entry, peer.Done()); err != nil {
		logger.Info().Err(err).Msg("left the lobby")
		return err
	}

	questions := c.Questions()
	if err := peer.Send(domain.Outbound{Type: domain.MsgStart, Payload: domain.StartPayload{
		Message:         "Exam started",
		Total:           len(questions),
		DurationSeconds: int(c.state.Duration().Seconds()),
	}}); err != nil {
		return err
	}
	logger.Info().Int("questions", len(questions)).Msg("sending questions")

	for i, q := range questions {
		option, err := c.askAnswer(connCtx, peer, q, i, len(questions))
		if err != nil {
			logger.Info().Err(err).Int("question", i+1).Msg("disconnected during exam")
			return err
		}
		if err := c.scores.RecordAnswer(ctx, id, q, option); err != nil {
			return fmt.Errorf("record answer: %w", err)
		}
		logger.Debug().Str("question", q.ID).Int("option", option).Msg("answer received")
	}

	percent, err := c.scores.Score(ctx, id, questions)
	if err != nil {
		return fmt.Errorf("score: %w", err)
	}
	if err := peer.Send(domain.Outbound{Type: domain.MsgResult, Payload: domain.ResultPayload{Percent: percent}}); err != nil {
		return err
	}
	if err := peer.Send(domain.Outbound{Type: domain.MsgComplete, Payload: domain.NoticePayload{
		Message: "Exam completed! Thank you.",
	}}); err != nil {
		return err
	}
	logger.Info().Int("percent", percent).Msg("exam completed")
	return nil
}

func (c *Coordinator) askCredential(ctx context.Context, peer Peer, field, text string) (string, error) {
	if err := peer.Send(domain.Outbound{Type: domain.MsgPrompt, Payload: domain.PromptPayload{Field: field, Text: text}}); err != nil {
		return "", err
	}
	for {
		in, err := peer.Receive(ctx)
		if err != nil {
			return "", err
		}
		if in.Type == domain.MsgCredential {
			return in.Value, nil
		}
		if err := sendError(peer, fmt.Errorf("%w: expected %s, got %q", domain.ErrUnexpectedMessage, field, in.Type).Error()); err != nil {
			return "", err
		}
	}
}

// askAnswer sends a question and waits for a valid option for it.
func (c *Coordinator) askAnswer(ctx context.Context, peer Peer, q domain.Question, index, total int) (int, error) {
	if err := peer.Send(domain.Outbound{Type: domain.MsgQuestion, Payload: domain.QuestionPayload{
		Index:   index + 1,
		Total:   total,
		ID:      q.ID,
		Prompt:  q.Prompt,
		Options: q.Options,
	}}); err != nil {
		return 0, err
	}
	for {
		in, err := peer.Receive(ctx)
		if err != nil {
			return 0, err
		}
		switch {
		case in.Type != domain.MsgAnswer:
			err = sendError(peer, fmt.Errorf("%w: expected answer, got %q", domain.ErrUnexpectedMessage, in.Type).Error())
		case !q.ValidOption(in.Option):
			err = sendError(peer, fmt.Sprintf("option must be between 1 and %d", len(q.Options)))
		default:
			return in.Option, nil
		}
		if err != nil {
			return 0, err
		}
	}
}

func sendError(peer Peer, message string) error {
	return peer.Send(domain.Outbound{Type: domain.MsgError, Payload: domain.ErrorPayload{Message: message}})
}
