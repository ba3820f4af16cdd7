package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/samber/lo"

	"partyroom/internal/model"
	"partyroom/internal/selector"
)

// DisconnectPolicy decides what happens to a player's seat when their
// connection drops
type DisconnectPolicy string

const (
	// PolicyRemove drops the player record on disconnect
	PolicyRemove DisconnectPolicy = "remove"
	// PolicyRetain keeps the seat with an empty connection so the same name
	// can reattach later
	PolicyRetain DisconnectPolicy = "retain"
)

// RoundResult is the outcome of a start or advance transition
type RoundResult struct {
	Ended          bool            `json:"ended"`
	Question       *model.Question `json:"question,omitempty"`
	SelectedPlayer string          `json:"selectedPlayer,omitempty"`
	Index          int             `json:"index"`
	Total          int             `json:"total"`
}

// Orchestrator drives the per-session state machine
type Orchestrator struct {
	registry  *Registry
	questions *QuestionService
	policy    DisconnectPolicy
	newRand   func() (*rand.Rand, error)
	log       *slog.Logger
}

// NewOrchestrator creates a turn orchestrator
func NewOrchestrator(registry *Registry, questions *QuestionService, policy DisconnectPolicy, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	if policy != PolicyRetain {
		policy = PolicyRemove
	}
	return &Orchestrator{
		registry:  registry,
		questions: questions,
		policy:    policy,
		newRand:   selector.NewRand,
		log:       log,
	}
}

// Policy returns the configured disconnect policy
func (o *Orchestrator) Policy() DisconnectPolicy {
	return o.policy
}

// Join adds a player to a lobby or running session. Under the retain policy a
// name that matches a disconnected seat takes that seat back.
func (o *Orchestrator) Join(ctx context.Context, code, name, connID string) (*model.Session, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: player name is required", ErrInvalidInput)
	}

	var joined *model.Session
	err := o.registry.transact(ctx, code, func(s *model.Session) (change, error) {
		if s.Status == model.SessionEnded {
			return change{}, fmt.Errorf("%w: session %s has ended", ErrInvalidTransition, code)
		}
		if connID != "" && s.PlayerByConnection(connID) >= 0 {
			return change{}, fmt.Errorf("%w: connection already seated in %s", ErrDuplicateName, code)
		}

		if idx := s.PlayerByName(name); idx >= 0 {
			if s.Players[idx].Connected() || o.policy != PolicyRetain {
				return change{}, fmt.Errorf("%w: %q in %s", ErrDuplicateName, name, code)
			}
			s.Players[idx].ConnectionID = connID
		} else {
			s.Players = append(s.Players, model.Player{
				Name:         name,
				ConnectionID: connID,
				JoinedAt:     o.registry.now(),
			})
		}

		// Subscribe before the write so the joining connection sees its own snapshot.
		o.registry.subscribe(code, connID)
		joined = s
		return change{
			commit:   true,
			events:   []event{membershipChanged(s)},
			rollback: func() { o.registry.unsubscribe(code, connID) },
		}, nil
	})
	if err != nil {
		return nil, err
	}

	o.log.Info("player joined", "code", code, "player", name, "players", len(joined.Players))
	return joined.Clone(), nil
}

// Start assigns the question sequence and asks the first question
func (o *Orchestrator) Start(ctx context.Context, code, initiatorConnID string) (*RoundResult, error) {
	var result *RoundResult
	err := o.registry.transact(ctx, code, func(s *model.Session) (change, error) {
		if s.Status != model.SessionLobby {
			return change{}, fmt.Errorf("%w: cannot start %s session %s", ErrInvalidTransition, s.Status, code)
		}

		active := connectedPlayers(s)
		if len(active) == 0 {
			return change{}, fmt.Errorf("%w: no connected players in %s", ErrInvalidTransition, code)
		}

		pool, err := o.questions.Pool(ctx)
		if err != nil {
			return change{}, err
		}
		rng, err := o.newRand()
		if err != nil {
			return change{}, fmt.Errorf("seed selector: %w", err)
		}
		questions, err := selector.Select(pool, s.Config, rng)
		if err != nil {
			return change{}, fmt.Errorf("start %s: %w", code, err)
		}

		s.Questions = questions
		s.CurrentQuestionIndex = 0
		s.CurrentPlayerIndex = rng.IntN(len(active))
		s.Status = model.SessionActive

		q := s.Questions[0]
		result = &RoundResult{
			Question:       &q,
			SelectedPlayer: active[s.CurrentPlayerIndex].Name,
			Index:          0,
			Total:          len(s.Questions),
		}
		return change{
			commit: true,
			events: []event{
				newQuestion(result),
				{msgType: model.EventSessionStarted, payload: model.SessionStartedEvent{Code: code, Total: result.Total}},
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	o.log.Info("session started", "code", code, "initiator", initiatorConnID,
		"questions", result.Total, "selected", result.SelectedPlayer)
	return result, nil
}

// Advance moves the session to its next round. Once the session has ended,
// further calls keep reporting the end without side effects.
func (o *Orchestrator) Advance(ctx context.Context, code string) (*RoundResult, error) {
	var result *RoundResult
	err := o.registry.transact(ctx, code, func(s *model.Session) (change, error) {
		switch s.Status {
		case model.SessionLobby:
			return change{}, fmt.Errorf("%w: session %s has not started", ErrInvalidTransition, code)
		case model.SessionEnded:
			result = &RoundResult{Ended: true, Index: s.CurrentQuestionIndex, Total: len(s.Questions)}
			return change{}, nil
		}

		s.CurrentQuestionIndex++
		s.CurrentPlayerIndex++

		if s.CurrentQuestionIndex >= len(s.Questions) {
			s.CurrentQuestionIndex = len(s.Questions)
			s.Status = model.SessionEnded
			result = &RoundResult{Ended: true, Index: s.CurrentQuestionIndex, Total: len(s.Questions)}
			return change{commit: true, events: sessionEnded(s, model.EndReasonExhausted)}, nil
		}

		active := connectedPlayers(s)
		if len(active) == 0 {
			s.Status = model.SessionEnded
			result = &RoundResult{Ended: true, Index: s.CurrentQuestionIndex, Total: len(s.Questions)}
			return change{commit: true, events: sessionEnded(s, model.EndReasonNoPlayers)}, nil
		}

		q := s.Questions[s.CurrentQuestionIndex]
		result = &RoundResult{
			Question:       &q,
			SelectedPlayer: active[s.CurrentPlayerIndex%len(active)].Name,
			Index:          s.CurrentQuestionIndex,
			Total:          len(s.Questions),
		}
		return change{commit: true, events: []event{newQuestion(result)}}, nil
	})
	if err != nil {
		return nil, err
	}

	if result.Ended {
		o.log.Debug("advance on ended session", "code", code)
	} else {
		o.log.Debug("question advanced", "code", code, "index", result.Index, "selected", result.SelectedPlayer)
	}
	return result, nil
}

// Leave removes the player seated on connID, whatever the disconnect policy
func (o *Orchestrator) Leave(ctx context.Context, code, connID string) error {
	return o.depart(ctx, code, connID, true)
}

// Disconnect handles a dropped connection according to the disconnect policy
func (o *Orchestrator) Disconnect(ctx context.Context, code, connID string) error {
	return o.depart(ctx, code, connID, o.policy == PolicyRemove)
}

func (o *Orchestrator) depart(ctx context.Context, code, connID string, remove bool) error {
	defer o.registry.unsubscribe(code, connID)

	var name string
	var emptied bool
	err := o.registry.transact(ctx, code, func(s *model.Session) (change, error) {
		idx := s.PlayerByConnection(connID)
		if idx < 0 {
			return change{}, nil
		}
		name = s.Players[idx].Name

		if !remove {
			s.Players[idx].ConnectionID = ""
			return change{commit: true, events: []event{membershipChanged(s)}}, nil
		}

		s.Players = append(s.Players[:idx], s.Players[idx+1:]...)
		if len(s.Players) > 0 {
			return change{commit: true, events: []event{membershipChanged(s)}}, nil
		}

		emptied = true
		s.Status = model.SessionEnded
		return change{remove: true, events: sessionEnded(s, model.EndReasonEmpty)}, nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if name != "" {
		o.log.Info("player left", "code", code, "player", name, "removed", remove)
	}
	if emptied {
		o.log.Info("session emptied and deleted", "code", code)
	}
	return nil
}

// CheckStatus reports whether connID is seated in the session
func (o *Orchestrator) CheckStatus(ctx context.Context, code, connID string) (bool, error) {
	s, err := o.registry.Get(ctx, code)
	if err != nil {
		return false, err
	}
	return connID != "" && s.PlayerByConnection(connID) >= 0, nil
}

func connectedPlayers(s *model.Session) []model.Player {
	return lo.Filter(s.Players, func(p model.Player, _ int) bool {
		return p.Connected()
	})
}

func newQuestion(r *RoundResult) event {
	return event{
		msgType: model.EventNewQuestion,
		payload: model.NewQuestionEvent{
			Question:       *r.Question,
			SelectedPlayer: r.SelectedPlayer,
			Index:          r.Index,
			Total:          r.Total,
		},
	}
}
