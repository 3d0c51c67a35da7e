// Package handlers routes one decoded update to the per-chat FSM: a
// callback query dispatches by its command string, a text message always
// goes to the default handler. Every handler logs before doing anything
// else, so a failure is always attributable to a specific command.
package handlers

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/config"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/fsm"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/metrics"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/tgapi"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/storage"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/update"
)

// Handler processes one decoded update against the shared Registry state.
type Handler func(ctx context.Context, r *Registry, upd *update.Update) error

// Registry is the Handler Registry: a command-to-Handler mapping plus the
// dependencies every handler needs (storage, chat client, FSM manager).
// One Registry is shared by every Worker goroutine in a process since
// FSM.Manager mutual exclusion comes from the shard, not from a lock here.
type Registry struct {
	Store   storage.Store
	Chat    tgapi.Client
	FSMs    *fsm.Manager
	Cfg     config.GameConfig
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	commands map[string]Handler
}

// New builds a Registry with the standard five commands bound.
func New(store storage.Store, chat tgapi.Client, fsms *fsm.Manager, cfg config.GameConfig, logger *slog.Logger, m *metrics.Metrics) *Registry {
	r := &Registry{
		Store:   store,
		Chat:    chat,
		FSMs:    fsms,
		Cfg:     cfg,
		Logger:  logger,
		Metrics: m,
	}
	r.commands = map[string]Handler{
		"/start":      StartHandler,
		"/join":       JoinHandler,
		"/leave_game": LeaveGameHandler,
		"/say_letter": SayLetterHandler,
		"/say_word":   SayWordHandler,
	}
	return r
}

// Dispatch routes upd to its handler: a callback query by its command, a
// text message to the default text handler. An unrecognized command is a
// silent no-op, after the callback is still acknowledged. Each dispatch
// gets its own correlation id so a chat's log lines for one update can be
// grepped out of a worker's interleaved output.
func (r *Registry) Dispatch(ctx context.Context, upd *update.Update) error {
	correlationID := uuid.New().String()
	log := r.Logger.With("correlation_id", correlationID, "chat_id", upd.ChatID())

	switch upd.Kind {
	case update.BodyKindCallbackQuery:
		cb := upd.CallbackQuery
		h, ok := r.commands[cb.Command]
		if !ok {
			log.Warn("unknown command", "command", cb.Command)
			return r.Chat.AnswerCallback(cb.CallbackID)
		}
		if err := h(ctx, r, upd); err != nil {
			log.Error("handler failed", "command", cb.Command, "error", err)
			r.Metrics.HandlerErrors.Inc()
			return err
		}
		return nil
	case update.BodyKindMessage:
		if err := TextMessageHandler(ctx, r, upd); err != nil {
			log.Error("text handler failed", "error", err)
			r.Metrics.HandlerErrors.Inc()
			return err
		}
		return nil
	default:
		log.Warn("update with unknown kind", "kind", upd.Kind)
		return nil
	}
}
